// Package buildfs is the build-output file layer. Every pipeline stage reads and
// writes "files" through a Layer without knowing whether the bytes live on real
// disk, are only recorded as links in a build manifest, or come from a previous
// phase's output being reused as input.
//
// A Layer combines one Reader and an optional Writer. Layers are composed with
// the immutable Builder, starting from Default:
//
//	layer := buildfs.Default.
//		ReadFromRealFileSystem("/src", nil).
//		WriteToRealFileSystem("/out").
//		Create()
//	defer layer.Close()
//
//	next, err := buildfs.Default.ReadFromOutput(layer)
//
// Dereference turns a manifest whose entries link to scattered files into a
// single self-contained output folder.
package buildfs
