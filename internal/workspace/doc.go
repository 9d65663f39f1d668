// Package workspace manages the staging folder of a staged build: the place
// files created during the build live until the manifest is dereferenced.
//
// Ephemeral mode creates a uniquely named folder (e.g. docfs-stage-20251214-122336-1a2b3c4d)
// and removes it after use.
//
// Persistent mode uses a fixed folder that survives the build, so staged
// outputs can be inspected or linked again by a later run.
package workspace
