// Package repoctx turns a repository tree and a handful of file contents into
// bounded text for a language model.
//
// Everything here is pure: tree filtering, content cleaning, directory
// listings and context assembly take values and return values, so the same
// input always produces the same prompt material.
package repoctx
