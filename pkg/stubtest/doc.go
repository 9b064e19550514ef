// Package stubtest provides helpers for tests that run against stubbed
// resources.
//
// Features:
//   - Setup: a fresh stubification context per test
//   - MockManager: in-memory resource manager for live construction
//   - Probe: records which real methods ran
//   - NewChain, NewDiamond: canned resource hierarchies
package stubtest
