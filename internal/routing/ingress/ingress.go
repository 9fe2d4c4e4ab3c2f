// Package ingress selects an ingress PoP for a service, either via a local
// deterministic policy (round robin or flow-hash) or by consulting an
// external anycast/BGP oracle for a route-informed choice.
package ingress

import (
	"sync/atomic"

	"golang.org/x/crypto/sha3"

	"github.com/aftahi334/alpha-smart-router/internal/routing/pop"
)

// Strategy is a local deterministic strategy for selecting an ingress PoP.
type Strategy uint8

const (
	RoundRobin Strategy = iota
	HashSourceIP
	Hash5Tuple
)

// Mode is the top-level ingress selection mode.
type Mode uint8

const (
	// PolicyDeterministic selects via RoundRobin/HashSourceIP/Hash5Tuple
	// with no oracle consult.
	PolicyDeterministic Mode = iota
	// RouteInformed consults an Oracle for the anycast best path.
	RouteInformed
)

// DefaultHashSeed salts the avalanche mix for hashing strategies.
const DefaultHashSeed uint64 = 0xA17A5EED

// Config configures ingress selection.
type Config struct {
	Mode     Mode
	Strategy Strategy
	Seed     uint64
}

// DefaultConfig returns PolicyDeterministic/RoundRobin with the default seed.
func DefaultConfig() Config {
	return Config{Mode: PolicyDeterministic, Strategy: RoundRobin, Seed: DefaultHashSeed}
}

// Oracle answers "which PoP serves serviceID for this client" for
// RouteInformed mode. clientSrcIP may be empty to ask for the best overall
// path. Implementations are external collaborators (e.g. bgpsim.Oracle); the
// selector only calls this interface.
type Oracle interface {
	ServingPop(serviceID, clientSrcIP string) (popID string, ok bool)
}

// FiveTuple identifies a flow for Hash5Tuple ingress selection.
type FiveTuple struct {
	SrcIP    string
	DstIP    string
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

// Selector chooses an ingress PoP. Safe for concurrent use: the round-robin
// counter is atomic and cfg/pops/oracle are only ever replaced wholesale.
type Selector struct {
	cfg    atomic.Pointer[Config]
	pops   atomic.Pointer[pop.List]
	oracle atomic.Pointer[Oracle]
	rr     atomic.Uint64
}

// New builds a Selector with the given configuration.
func New(cfg Config) *Selector {
	s := &Selector{}
	s.cfg.Store(&cfg)
	s.pops.Store(&pop.List{})
	return s
}

// LoadPops replaces the set of available PoPs.
func (s *Selector) LoadPops(pops pop.List) {
	s.pops.Store(&pops)
}

// UpdateConfig replaces the ingress configuration.
func (s *Selector) UpdateConfig(cfg Config) {
	s.cfg.Store(&cfg)
}

// AttachOracle installs the oracle used in RouteInformed mode.
func (s *Selector) AttachOracle(o Oracle) {
	s.oracle.Store(&o)
}

// ChooseIngress picks an ingress PoP for serviceID without client context.
func (s *Selector) ChooseIngress(serviceID string) (string, bool) {
	return s.chooseIngress(serviceID, "", 0)
}

// ChooseIngressForClient picks an ingress PoP for serviceID, client-aware:
// RouteInformed mode passes clientSrcIP to the oracle, and
// PolicyDeterministic/HashSourceIP derives the hash from it.
func (s *Selector) ChooseIngressForClient(serviceID, clientSrcIP string) (string, bool) {
	return s.chooseIngress(serviceID, clientSrcIP, hashIP(clientSrcIP))
}

// ChooseIngressForFlow picks an ingress PoP using a full 5-tuple flow hash,
// for Hash5Tuple strategy.
func (s *Selector) ChooseIngressForFlow(serviceID string, flow FiveTuple) (string, bool) {
	return s.chooseIngress(serviceID, flow.SrcIP, hashFlow(flow))
}

func (s *Selector) chooseIngress(serviceID, clientSrcIP string, flowHash uint64) (string, bool) {
	cfg := *s.cfg.Load()

	if cfg.Mode == RouteInformed {
		if op := s.oracle.Load(); op != nil {
			if popID, ok := (*op).ServingPop(serviceID, clientSrcIP); ok {
				return popID, true
			}
		}
	}

	pops := *s.pops.Load()
	ids := make([]string, len(pops))
	for i, p := range pops {
		ids[i] = p.ID
	}
	return s.choosePolicyDeterministic(cfg, ids, flowHash)
}

func (s *Selector) choosePolicyDeterministic(cfg Config, ids []string, flowHash uint64) (string, bool) {
	if len(ids) == 0 {
		return "", false
	}
	switch cfg.Strategy {
	case RoundRobin:
		idx := s.rr.Add(1) - 1
		return ids[idx%uint64(len(ids))], true
	case HashSourceIP, Hash5Tuple:
		h := mix(flowHash, cfg.Seed)
		return ids[h%uint64(len(ids))], true
	default:
		return ids[0], true
	}
}

// mix is a splitmix64/wyhash-style avalanche used to spread flow hashes
// uniformly across the PoP index space.
func mix(x, seed uint64) uint64 {
	const (
		phi = 0x9e3779b97f4a7c15
		m1  = 0xff51afd7ed558ccd
		m2  = 0xc4ceb9fe1a85ec53
	)
	x ^= seed + phi + (x << 6) + (x >> 2)
	x ^= x >> 33
	x *= m1
	x ^= x >> 33
	x *= m2
	x ^= x >> 33
	return x
}

// hashIP folds a source IP string into a 64-bit flow hash via SHA3-256,
// taking the first 8 bytes of the digest, read big-endian. SHA3 is overkill for load
// balancing entropy but keeps a single, well-reviewed primitive for every
// hash-derivation path in the selector.
func hashIP(ip string) uint64 {
	if ip == "" {
		return 0
	}
	sum := sha3.Sum256([]byte(ip))
	return beUint64(sum[:8])
}

// hashFlow folds a 5-tuple into a 64-bit flow hash the same way hashIP
// folds a bare source IP.
func hashFlow(f FiveTuple) uint64 {
	h := sha3.New256()
	h.Write([]byte(f.SrcIP))
	h.Write([]byte(f.DstIP))
	h.Write([]byte{byte(f.SrcPort >> 8), byte(f.SrcPort), byte(f.DstPort >> 8), byte(f.DstPort), f.Protocol})
	sum := h.Sum(nil)
	return beUint64(sum[:8])
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
