package fspath

import (
	"os"
	"regexp"
)

var percentVar = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// ExpandEnv expands environment variables embedded in a physical path. Both
// $VAR/${VAR} and %VAR% forms are recognized; an unknown %VAR% is left as is.
//
// This is the only place the file layer reads host process state, and it must
// be called at the moment of physical access rather than at construction.
func ExpandEnv(physical string) string {
	physical = percentVar.ReplaceAllStringFunc(physical, func(m string) string {
		if v, ok := os.LookupEnv(m[1 : len(m)-1]); ok {
			return v
		}
		return m
	})
	return os.ExpandEnv(physical)
}
