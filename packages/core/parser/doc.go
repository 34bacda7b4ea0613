// Package parser reads nap request files and naplist playlists.
//
// Request files (.nap) come in two shapes: a one-line shorthand
// ("GET https://example.com/health") and a sectioned form with [meta],
// [vars], [request], [request.headers], [request.body], [assert] and
// [script] blocks. Playlists (.naplist) hold an ordered list of steps:
// request files, folders, nested playlists and scripts.
//
// Parsing is line oriented and never panics. Structural problems are
// reported as *ParseError carrying the offending line. Malformed assertion
// lines are the one deliberate exception: they are dropped and recorded on
// the definition's Warnings list instead.
package parser
