package bgpsim

import "testing"

func TestServingPopNoRoutesReturnsNotOK(t *testing.T) {
	o := New()
	if _, ok := o.ServingPop("svc1", ""); ok {
		t.Fatal("expected no answer for an unknown service")
	}
}

func TestServingPopPicksHighestLocalPref(t *testing.T) {
	o := New()
	o.LoadRoutes(RouteMap{
		"svc1": {
			{PopID: "a", LocalPref: 100, AsPathLen: 2, Med: 100, IgpCost: 100},
			{PopID: "b", LocalPref: 200, AsPathLen: 5, Med: 500, IgpCost: 500},
		},
	})
	got, ok := o.ServingPop("svc1", "")
	if !ok || got != "b" {
		t.Fatalf("got (%s, %v), want b (higher local_pref wins outright)", got, ok)
	}
}

func TestServingPopTieBreaksOnAsPathThenID(t *testing.T) {
	o := New()
	o.LoadRoutes(RouteMap{
		"svc1": {
			{PopID: "long-path", LocalPref: 100, AsPathLen: 5, Med: 0, IgpCost: 0},
			{PopID: "short-path", LocalPref: 100, AsPathLen: 2, Med: 100, IgpCost: 100},
		},
	})
	got, _ := o.ServingPop("svc1", "")
	if got != "short-path" {
		t.Fatalf("got %s, want short-path (shorter as_path_len wins on local_pref tie)", got)
	}

	o.LoadRoutes(RouteMap{
		"svc1": {
			{PopID: "z", LocalPref: 100, AsPathLen: 2, Med: 100, IgpCost: 100},
			{PopID: "a", LocalPref: 100, AsPathLen: 2, Med: 100, IgpCost: 100},
		},
	})
	got, _ = o.ServingPop("svc1", "")
	if got != "a" {
		t.Fatalf("got %s, want lexicographically smaller pop_id as final tiebreak", got)
	}
}
