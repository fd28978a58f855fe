package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/wippyai/slotpack/errors"
)

// Format names a document encoding.
type Format string

const (
	FormatLua  Format = "lua"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return FormatLua, true
	case ".json":
		return FormatJSON, true
	case ".hcl":
		return FormatHCL, true
	}
	return "", false
}

// Load reads and decodes a document file.
func Load(path string) (*Document, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, errors.InvalidConfig(path, fmt.Errorf("unknown extension %q", filepath.Ext(path)))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidConfig(path, err)
	}
	return Parse(path, format, data)
}

// Parse decodes a document. source is used in error messages.
func Parse(source string, format Format, data []byte) (*Document, error) {
	d := &Document{}
	var err error
	switch format {
	case FormatLua:
		err = parseLua(source, string(data), d)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(d)
	case FormatHCL:
		err = hcl.Unmarshal(data, d)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, errors.InvalidConfig(source, err)
	}
	d.Source = source
	if err := d.check(); err != nil {
		return nil, err
	}
	return d, nil
}

// parseLua runs the chunk and maps the table it returns onto d.
func parseLua(source, chunk string, d *Document) error {
	L := lua.NewState()
	defer L.Close()

	L.OpenLibs()

	// arg[0] = document path
	arg := &lua.LTable{}
	arg.Insert(0, lua.LString(source))
	L.SetGlobal("arg", arg)

	if err := L.DoString(chunk); err != nil {
		return err
	}

	tbl, ok := L.Get(L.GetTop()).(*lua.LTable)
	if !ok {
		return fmt.Errorf("document must return a table")
	}
	mapper := gluamapper.Mapper{Option: gluamapper.Option{
		NameFunc: func(s string) string {
			return s
		},
		TagName: "gluamapper",
	}}
	return mapper.Map(tbl, d)
}
