// Package dynamo provides the core primitives shared by the clock model,
// the frame loop and the offline runner.
//
//   - [State]: angle and angular velocity of the left and right pendulum
//   - [Frame]: one integration step as seen by observers
//   - [Observer]: receives every frame
//   - [Result]: output of an offline run
//
// Angles are in degrees. Velocities are in degrees per frame, since the
// integrator adds the velocity to the angle once per rendered frame.
//
// # Thread Safety
//
// State is a value type. A Clock that produces states is owned by a single
// loop and is NOT safe for concurrent use.
package dynamo
