// Package memhost is an in-memory implementation of the recolor host
// interfaces: textures, materials, renderers, meshes, the material
// inspector and the asset factory.
//
// It backs the command-line tool and the package tests. Every asset gets
// a process-unique ID from its Host; destroyed assets report Alive false.
package memhost
