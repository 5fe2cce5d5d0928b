// Package kpath provides kinded paths addressing positions in nested values.
//
// # Usage
//
//	kp, err := kpath.Parse("spec.replicas")
//	key := kpath.Join("deployment", "spec.replicas") // "deployment.spec.replicas"
//
// Kinded paths encode the container kind in the syntax: "a.b" addresses an
// object field, "a[0]" a sequence element. The Self sentinel "$" addresses
// the whole value at a level; Join maps it to the bare prefix so that child
// patches compose into parents without knowing their own position.
package kpath
