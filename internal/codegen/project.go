package codegen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

const (
	// RuntimeModule hosts the intrinsics and connector packages generated
	// programs import.
	RuntimeModule  = "github.com/roach88/pansql"
	RuntimeVersion = "v0.1.0"
	// GoVersion is the language version generated programs declare.
	GoVersion = "1.22"
)

// knownModules pins the third-party modules generated code may import.
var knownModules = map[string]string{
	RuntimeModule:            RuntimeVersion,
	"github.com/google/uuid": "v1.6.0",
}

func moduleOf(importPath string) string {
	for mod := range knownModules {
		if importPath == mod || strings.HasPrefix(importPath, mod+"/") {
			return mod
		}
	}
	return ""
}

func versionOf(importPath string) string {
	return knownModules[moduleOf(importPath)]
}

var unsafeModuleChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// ModulePath derives the generated program's module path from the script
// name.
func ModulePath(scriptName string) string {
	elem := unsafeModuleChars.ReplaceAllString(strings.ToLower(scriptName), "-")
	elem = strings.Trim(elem, "-.")
	if elem == "" {
		elem = "script"
	}
	return "pansql.local/" + elem
}

// ProjectFile renders the go.mod of the generated program.
func ProjectFile(m *Model) (string, error) {
	modPath := ModulePath(m.ScriptName)
	if err := module.CheckPath(modPath); err != nil {
		return "", fmt.Errorf("project file: %w", err)
	}

	f := &modfile.File{Syntax: &modfile.FileSyntax{}}
	if err := f.AddModuleStmt(modPath); err != nil {
		return "", fmt.Errorf("project file: %w", err)
	}
	if err := f.AddGoStmt(GoVersion); err != nil {
		return "", fmt.Errorf("project file: %w", err)
	}

	mods := make([]string, 0, len(m.requires))
	for mod := range m.requires {
		mods = append(mods, mod)
	}
	sort.Strings(mods)
	for _, mod := range mods {
		f.AddNewRequire(mod, m.requires[mod], false)
	}

	out, err := f.Format()
	if err != nil {
		return "", fmt.Errorf("project file: %w", err)
	}
	return string(out), nil
}
