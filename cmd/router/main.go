// ════════════════════════════════════════════════════════════════════════════════════════════════
// Alpha Smart Router - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Bootstrap & System Orchestration
//
// Phases:
//   - Bootstrap: load config, build the service registry, policies, ingress
//     selector/oracle, RT wiring.
//   - Control plane: owns the registry, binds path-selection policies, feeds
//     health/metrics into seqlocked slots, runs failover evaluation, and
//     re-selects ingress PoPs on a failsched-scheduled cadence.
//   - Data plane: pinned workers drain packet rings, select a path from the
//     service's candidate set through the bound policy, count no-path
//     results, and release the packet handle. Allocation-free.
// ════════════════════════════════════════════════════════════════════════════════════════════════
package main

import (
	"flag"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/aftahi334/alpha-smart-router/internal/bgpsim"
	"github.com/aftahi334/alpha-smart-router/internal/config"
	"github.com/aftahi334/alpha-smart-router/internal/control"
	"github.com/aftahi334/alpha-smart-router/internal/debug"
	"github.com/aftahi334/alpha-smart-router/internal/failsched"
	"github.com/aftahi334/alpha-smart-router/internal/mem/packetpool"
	"github.com/aftahi334/alpha-smart-router/internal/mem/spscring"
	"github.com/aftahi334/alpha-smart-router/internal/obs"
	"github.com/aftahi334/alpha-smart-router/internal/routing/failover"
	"github.com/aftahi334/alpha-smart-router/internal/routing/ingress"
	"github.com/aftahi334/alpha-smart-router/internal/routing/pathidx"
	"github.com/aftahi334/alpha-smart-router/internal/routing/pathselect"
	"github.com/aftahi334/alpha-smart-router/internal/routing/policybinding"
	"github.com/aftahi334/alpha-smart-router/internal/routing/pop"
	"github.com/aftahi334/alpha-smart-router/internal/routing/qos"
	"github.com/aftahi334/alpha-smart-router/internal/routing/registry"
	"github.com/aftahi334/alpha-smart-router/internal/routing/seqslot"
	"github.com/aftahi334/alpha-smart-router/internal/rt"
)

const (
	ringSize       = 4096
	packetPoolSize = 4096
	numWorkers     = 2
	evalTickPeriod = 250 * time.Millisecond
)

// servicePlane is everything the control plane owns for one registered
// service: its slots (one per candidate PoP, index-aligned with pathidx),
// the binding a worker resolves through, and failover bookkeeping.
type servicePlane struct {
	serviceID  string
	candIndex  *pathidx.Index
	pathIDs    []string // index-aligned with slots and candIndex's stored indices
	slots      []seqslot.Slot
	cands      []policybinding.CandidateRef // built once; IDs are 1-based, 0 stays the no-path sentinel
	binding    policybinding.Binding
	failover   *failover.Policy
	health     []failover.PathHealth
	current    string
	ingressPop string
}

func main() {
	configPath := flag.String("config", "", "path to router TOML config")
	auditDB := flag.String("audit-db", "", "optional sqlite3 path for decision audit log")
	flag.Parse()

	debug.DropMessage("INIT", "loading configuration")
	rc, err := config.LoadFromFile(*configPath)
	if err != nil {
		debug.DropError("CONFIG", err)
	}

	observer := obs.New()
	if *auditDB != "" {
		if err := observer.EnableAuditLog(*auditDB); err != nil {
			debug.DropError("AUDIT", err)
		}
	}
	obs.ConfigureLogger(zerolog.InfoLevel)
	defer observer.Close()

	reg := registry.New()
	for _, svc := range rc.Bootstrap {
		if errCode := reg.AddService(svc.ID, svc.PopList()); errCode != registry.Ok {
			debug.DropMessage("BOOTSTRAP", svc.ID+": "+errCode.Error())
		}
	}
	debug.DropMessage("LOADED", "services registered")

	qosPolicy := qos.New(rc.QoS)
	failoverCfg := rc.Failover

	oracle := bgpsim.New()
	ingressSel := ingress.New(rc.Ingress)
	ingressSel.AttachOracle(oracle)

	planes := buildServicePlanes(reg, failoverCfg)
	ingressSel.LoadPops(flattenPops(reg))
	oracle.LoadRoutes(buildRouteMap(reg))

	serviceOrder, sched, svcHandle := buildRecheckSchedule(planes)

	debug.DropMessage("READY", "control plane initialized")

	setupSignalHandling()

	pool, err := packetpool.New(packetPoolSize)
	if err != nil {
		debug.DropError("POOL", err)
		return
	}
	stop, hot := control.Flags()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		cpu := i
		ring, err := spscring.New(ringSize) // one ring per pinned worker: SPSC, not SPMC
		if err != nil {
			debug.DropError("RING", err)
			continue
		}
		done := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-done
		}()
		spscring.PinnedConsumer(ring, stop, hot,
			func() {
				if !rt.BindAndPrioritize(rt.Config{CPU: cpu, Policy: rt.Fifo, Priority: 50}) {
					debug.DropMessage("RT", "BindAndPrioritize failed; worker runs without full pinning/priority")
				}
			},
			dataPlaneHandler(pool, planes, observer),
			done,
		)
	}

	runControlPlane(planes, serviceOrder, sched, svcHandle, qosPolicy, ingressSel, observer, stop)
	wg.Wait()
	debug.DropMessage("SIGNAL", "all subsystems shut down")
}

// buildServicePlanes seeds one servicePlane per registered service, binding
// the latency-aware policy by default. Candidate IDs are 1-based (pop.PathId
// 0 is reserved as the "no usable path" sentinel policybinding.SelectPath
// returns when unbound or empty).
func buildServicePlanes(reg *registry.Registry, failoverCfg failover.Config) map[string]*servicePlane {
	planes := make(map[string]*servicePlane)
	policy := pathselect.NewLatencyAwarePolicy(pathselect.DefaultLatencyAwareConfig())

	for _, serviceID := range reg.ListServices() {
		pops := reg.GetPopsCopy(serviceID)
		idx := pathidx.New()
		sp := &servicePlane{
			serviceID: serviceID,
			candIndex: idx,
			pathIDs:   make([]string, len(pops)),
			slots:     make([]seqslot.Slot, len(pops)),
			cands:     make([]policybinding.CandidateRef, len(pops)),
			failover:  failover.New(failoverCfg),
		}
		for i, p := range pops {
			idx.Put(p.ID, uint32(i))
			sp.pathIDs[i] = p.ID
			seqslot.Publish(&sp.slots[i], seqslot.DefaultPathMetrics())
			sp.health = append(sp.health, failover.PathHealth{PathID: p.ID, State: failover.Up, LastChange: time.Now()})
			sp.cands[i] = policybinding.CandidateRef{ID: pop.PathId(i + 1), Slot: &sp.slots[i]}
		}
		if len(pops) > 0 {
			sp.current = pops[0].ID
		}
		policybinding.Publish(&sp.binding, policy.Choose)
		planes[serviceID] = sp
	}
	return planes
}

// buildRecheckSchedule assigns each service a stable index (sorted, since
// registry.ListServices order isn't) and seeds a failsched.Queue with one
// recheck target per service, due at tick 0.
func buildRecheckSchedule(planes map[string]*servicePlane) ([]string, *failsched.Queue, map[string]failsched.Handle) {
	order := make([]string, 0, len(planes))
	for id := range planes {
		order = append(order, id)
	}
	sort.Strings(order)

	sched := failsched.New()
	handles := make(map[string]failsched.Handle, len(order))
	for i, id := range order {
		h, err := sched.Borrow()
		if err != nil {
			debug.DropError("FAILSCHED", err)
			continue
		}
		handles[id] = h
		if err := sched.Push(0, h, failsched.Target{ServiceIdx: uint16(i)}); err != nil {
			debug.DropError("FAILSCHED", err)
		}
	}
	return order, sched, handles
}

func flattenPops(reg *registry.Registry) pop.List {
	var out pop.List
	for _, id := range reg.ListServices() {
		out = append(out, reg.GetPopsCopy(id)...)
	}
	return out
}

// buildRouteMap derives a simulated BGP route table from the registry's
// current PoPs, one route per (service, pop) pair at the default attributes.
func buildRouteMap(reg *registry.Registry) bgpsim.RouteMap {
	rm := bgpsim.RouteMap{}
	for _, serviceID := range reg.ListServices() {
		pops := reg.GetPopsCopy(serviceID)
		routes := make([]bgpsim.Route, 0, len(pops))
		for _, p := range pops {
			routes = append(routes, bgpsim.Route{
				PopID:     p.ID,
				LocalPref: bgpsim.DefaultLocalPref,
				AsPathLen: bgpsim.DefaultAsPathLen,
				Med:       bgpsim.DefaultMed,
				IgpCost:   bgpsim.DefaultIgpCost,
			})
		}
		rm[serviceID] = routes
	}
	return rm
}

// dataPlaneHandler resolves a packet's candidate set and calls the bound
// policy, freeing the packet handle back to the pool once processed. p is
// a *packetpool.Handle boxed as unsafe.Pointer by the producer side; the
// handler never allocates.
func dataPlaneHandler(pool *packetpool.Pool, planes map[string]*servicePlane, observer *obs.Observer) func(unsafe.Pointer) {
	return func(p unsafe.Pointer) {
		h := *(*packetpool.Handle)(p)
		pkt := pool.Get(h)

		var selected pop.PathId
		if sp, ok := planes[pkt.ServiceID]; ok {
			selected = policybinding.SelectPath(&sp.binding, sp.cands, pop.PacketContext{
				FlowHash: pkt.FlowHash,
				DSCP:     pkt.DSCP,
			})
		}
		observer.NotePathSelection(selected)

		control.SignalActivity()
		pool.Release(h)
	}
}

// runControlPlane drains failsched for services due a recheck each tick,
// evaluates failover and ingress for exactly those services, and
// reschedules each for the next tick — replacing an unconditional scan of
// every registered service with due-queue polling.
func runControlPlane(
	planes map[string]*servicePlane,
	serviceOrder []string,
	sched *failsched.Queue,
	svcHandle map[string]failsched.Handle,
	qosPolicy *qos.Policy,
	ingressSel *ingress.Selector,
	observer *obs.Observer,
	stop *uint32,
) {
	ticker := time.NewTicker(evalTickPeriod)
	defer ticker.Stop()

	var tick int64
	for range ticker.C {
		if *stop != 0 {
			return
		}

		due := tick % failsched.Capacity
		for {
			h, dueTick, target, ok := sched.PeepMin()
			if !ok || dueTick != due {
				break
			}
			sched.PopMin()

			serviceID := serviceOrder[target.ServiceIdx]
			if sp := planes[serviceID]; sp != nil {
				evaluateService(sp, qosPolicy, ingressSel, observer)
			}

			next := (due + 1) % failsched.Capacity
			if err := sched.Push(next, h, target); err != nil {
				debug.DropError("FAILSCHED", err)
				_ = sched.Return(h)
				delete(svcHandle, serviceID)
			}
		}

		tick++
		control.PollCooldown()
	}
}

func evaluateService(sp *servicePlane, qosPolicy *qos.Policy, ingressSel *ingress.Selector, observer *obs.Observer) {
	var metrics []qos.PathMetrics
	for i, pathID := range sp.pathIDs {
		m, ok := seqslot.Load(&sp.slots[i])
		if !ok {
			continue
		}
		metrics = append(metrics, qos.PathMetrics{
			PathID:    pathID,
			LatencyUs: m.RttUs,
			JitterUs:  m.JitterUs,
			Loss:      float64(m.LossPpm) / 1e6,
		})
	}

	scores := make([]qos.Score, 0, len(metrics))
	for _, m := range metrics {
		scores = append(scores, qosPolicy.ScorePath(m, qos.BestEffort))
	}

	decision, switched := sp.failover.Evaluate(sp.current, scores, sp.health, time.Now())
	if switched {
		sp.current = decision.NextPathID
		observer.Record(obs.DecisionEvent{
			DecisionID:   sp.serviceID,
			SelectedPath: decision.NextPathID,
			Class:        qos.BestEffort,
			Scored:       scores,
			Reason:       decision.Reason,
		})
	}

	if popID, ok := ingressSel.ChooseIngress(sp.serviceID); ok && popID != sp.ingressPop {
		sp.ingressPop = popID
		debug.DropMessage("INGRESS", sp.serviceID+" -> "+popID)
	}
}

func setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "received interrupt, shutting down")
		control.Shutdown()
	}()
}
