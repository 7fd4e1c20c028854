// Package vm implements the Kyo execution engine.
//
// This package contains:
//   - KYC bytecode module decoder and encoder
//   - Closed-variant value representation and the type metaobject protocol
//   - Signature matching for call-argument binding
//   - Frame-per-call stack machine and the bytecode interpreter loop
//   - Exception hierarchy and frame-unwind propagation
//   - Built-in functions and primitive type methods
package vm
