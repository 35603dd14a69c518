// Package loader loads game content into Go structs at startup.
// Content is written as Lua scripts or YAML documents. The Lua VM is
// discarded after loading, so no Lua runs during play.
package loader

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/questline/engine/catalog"
	"github.com/nathoo/questline/engine/state"
	"github.com/nathoo/questline/types"
)

// Error codes.
const (
	CodeIO        = "LOADER_IO"
	CodePattern   = "LOADER_PATTERN"
	CodeNoContent = "LOADER_NO_CONTENT"
	CodeLua       = "LOADER_LUA"
	CodeYAML      = "LOADER_YAML"
	CodeCompile   = "LOADER_COMPILE"
	CodeInvalid   = "LOADER_INVALID"
)

// DefaultInclude selects content files anywhere below the content directory.
const DefaultInclude = "**.{lua,yaml,yml}"

type options struct {
	include       string
	engineVersion string
	logger        *slog.Logger
}

// Option configures loading.
type Option func(*options)

// WithInclude sets the glob that selects content files, matched against
// slash-separated paths relative to the content directory.
func WithInclude(pattern string) Option {
	return func(o *options) {
		if pattern != "" {
			o.include = pattern
		}
	}
}

// WithEngineVersion sets the version checked against Game.requires.
func WithEngineVersion(v string) Option { return func(o *options) { o.engineVersion = v } }

// WithLogger sets the logger used for content warnings.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// content accumulates definitions across files in load order.
type content struct {
	game      *types.GameDef
	gameFile  string
	items     []types.ItemDef
	dialogues []types.DialogueDefinition
	scene     []types.InteractableDef
	warnings  []string
}

// Load reads content from dir, compiles it into game definitions and
// validates references. Validation warnings are logged.
func Load(dir string, opts ...Option) (*state.Defs, error) {
	defs, report, err := LoadWithReport(dir, opts...)
	if err != nil {
		return nil, err
	}
	if len(report.Errors) > 0 {
		return nil, oops.Code(CodeInvalid).With("dir", dir).With("errors", len(report.Errors)).Wrap(report)
	}
	return defs, nil
}

// LoadWithReport is Load that returns the validation report instead of
// failing on it. The error is only set when content cannot be read or
// compiled.
func LoadWithReport(dir string, opts ...Option) (*state.Defs, *ValidationError, error) {
	o := options{include: DefaultInclude, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	files, err := discover(dir, o.include)
	if err != nil {
		return nil, nil, err
	}

	c := &content{}

	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{}
	registerAPI(L, coll)

	for _, rel := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		switch strings.ToLower(filepath.Ext(rel)) {
		case ".lua":
			coll.reset(rel)
			if err := L.DoFile(path); err != nil {
				return nil, nil, oops.Code(CodeLua).With("file", rel).Wrapf(err, "executing %s", rel)
			}
			if err := compileLua(coll, c); err != nil {
				return nil, nil, oops.Code(CodeCompile).With("file", rel).Wrapf(err, "compiling %s", rel)
			}
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, nil, oops.Code(CodeIO).With("file", rel).Wrapf(err, "reading %s", rel)
			}
			if err := decodeYAML(rel, data, c); err != nil {
				return nil, nil, err
			}
		}
	}

	if c.game == nil {
		return nil, nil, oops.Code(CodeCompile).With("dir", dir).Errorf("no Game definition found")
	}

	defs := &state.Defs{
		Game:      *c.game,
		Dialogues: catalog.New(c.dialogues...),
		Items:     catalog.NewItems(c.items...),
		Scene:     c.scene,
	}

	report := validate(defs, c.items, o.engineVersion)
	report.Warnings = append(c.warnings, report.Warnings...)
	for _, w := range report.Warnings {
		o.logger.Warn("content warning", "dir", dir, "detail", w)
	}
	return defs, report, nil
}

// discover lists the content files under dir matching include, as
// slash-separated relative paths. game.lua and game.yaml sort first, the
// rest alphabetically.
func discover(dir, include string) ([]string, error) {
	g, err := glob.Compile(include, '/')
	if err != nil {
		return nil, oops.Code(CodePattern).With("include", include).Wrapf(err, "bad include pattern")
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if g.Match(rel) && isContent(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code(CodeIO).With("dir", dir).Wrapf(err, "reading game directory %s", dir)
	}
	if len(files) == 0 {
		return nil, oops.Code(CodeNoContent).With("dir", dir).With("include", include).
			Errorf("no content files found in %s", dir)
	}
	return sortedFiles(files), nil
}

func isContent(rel string) bool {
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".lua", ".yaml", ".yml":
		return true
	}
	return false
}

// sortedFiles puts top-level game files first, rest alphabetical.
func sortedFiles(files []string) []string {
	rank := func(f string) int {
		switch f {
		case "game.lua", "game.yaml", "game.yml":
			return 0
		}
		return 1
	}
	sort.SliceStable(files, func(i, j int) bool {
		ri, rj := rank(files[i]), rank(files[j])
		if ri != rj {
			return ri < rj
		}
		return files[i] < files[j]
	})
	return files
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	// Table library (table.insert, table.sort, etc.)
	lua.OpenTable(L)
	// String library (string.format, string.sub, etc.)
	lua.OpenString(L)
	// Math library (math.floor, math.max, etc.)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Remove math.random and math.randomseed; line picks are the engine's job.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
			tbl.RawSetString("random", lua.LNil)
		}
	}
}
