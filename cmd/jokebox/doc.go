// Package main hosts the jokebox CLI entrypoint and command graph.
//
// The Cobra-based command tree drives the content pipeline: fetching
// candidates from online sources, importing pasted text, draining the raw
// queue through the dedup and policy stages, and serving accepted jokes back
// to the terminal. It centralizes configuration resolution, the pipeline
// lock, and logger setup so subcommands can focus on user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
