// Package plant models the tritium flow network of a fusion fuel cycle.
//
// Components hold an inventory and exchange tritium through ports:
//
//   - [Component]: generic node whose outflow is inventory/residence time
//   - [BreedingBlanket]: produces N_burn × TBR × duty cycle
//   - [FuelingSystem]: injects N_burn/TBE × duty cycle into the plasma
//   - [Plasma]: burns N_burn × duty cycle and exhausts the remainder
//   - [CryopumpSystem]: a [PumpBank] of fill/regenerate pump units
//
// A [ComponentMap] owns the components in declaration order, wires output
// ports to input ports, and propagates flow rates after every step.
//
// # Flow Propagation
//
// Every output port carries its owner's full outflow. An input port carries
// IncomingFraction × the peer output's flow, so fractions on the inputs fed
// by one output should sum to one for the network to conserve tritium.
package plant
