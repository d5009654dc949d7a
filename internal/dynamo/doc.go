// Package dynamo provides the numeric primitives shared by the fuel-cycle
// simulation engine.
//
// The package defines the state vector and the contract an integrator needs
// from the component network:
//
//   - [State]: one inventory scalar per component, in network order
//   - [System]: a network whose right-hand side can be evaluated at the
//     current committed state
//   - [SimulationError]: numeric failure annotated with step, time and state
//
// # Example
//
//	net := plant.NewComponentMap()
//	// ... add components, connect ports ...
//	s, _ := sim.New(net, sim.DefaultConfig())
//	result, _ := s.Run(ctx)
//
// # Thread Safety
//
// States are plain slices. A System is owned by a single simulator and is
// NOT safe for concurrent use; parallel sweeps build one network per worker.
package dynamo
