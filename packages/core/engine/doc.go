// Package engine orchestrates runs: it expands playlists into file, folder,
// nested-playlist, and script steps, executes them strictly in order, and
// carries exported variables forward from step to step.
//
// Failure containment is per step. A bad file or script yields one failed
// RunResult and the run moves on; an unparseable nested playlist contributes
// nothing. Only problems with the top-level target abort the run.
package engine
