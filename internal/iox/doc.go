// Package iox holds small io adapters shared by the archive reader.
package iox
