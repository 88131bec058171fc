package modeldetect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one directory entry with the roles its name satisfies.
type Entry struct {
	Name  string
	IsDir bool
	Roles []Role
	Int8  bool
}

// Inventory is the scanner's view of one model directory. It is immutable
// after Scan returns and safe to share between goroutines.
type Inventory struct {
	Dir        string
	Entries    []Entry
	Extensions []string

	candidates map[Role]*roleCandidates
}

type roleCandidates struct {
	plain []string
	int8  []string
}

// Scan lists the immediate entries of dir and tags each name against the
// published role table. It touches the filesystem only through one
// directory read.
func Scan(dir string) (*Inventory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("model directory not found or unreadable: %w", err)
	}

	inv := &Inventory{
		Dir:        dir,
		candidates: make(map[Role]*roleCandidates),
	}
	exts := make(map[string]struct{})

	for _, entry := range entries {
		name := entry.Name()
		lower := strings.ToLower(name)
		e := Entry{
			Name:  name,
			IsDir: entry.IsDir(),
			Int8:  strings.Contains(lower, "int8"),
		}
		if !e.IsDir {
			if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
				exts[ext] = struct{}{}
			}
		}
		for _, role := range rolesInOrder {
			if matches(Patterns[role], lower, e.IsDir) {
				e.Roles = append(e.Roles, role)
				inv.record(role, name, e.Int8)
			}
		}
		inv.Entries = append(inv.Entries, e)
	}

	for ext := range exts {
		inv.Extensions = append(inv.Extensions, ext)
	}
	sort.Strings(inv.Extensions)
	return inv, nil
}

// rolesInOrder keeps per-entry role tagging deterministic regardless of map
// iteration order.
var rolesInOrder = []Role{
	RoleEncoder, RoleDecoder, RoleJoiner, RoleTokens,
	RoleParaformer, RoleNemoCTC, RoleWenetCTC, RoleSenseVoice, RoleZipformerCTC,
	RoleFunASREncoderAdaptor, RoleFunASRLLM, RoleFunASREmbedding, RoleFunASRTokenizer,
	RoleVitsModel, RoleAcousticModel, RoleVocoder, RoleKokoroModel, RoleKittenModel,
	RoleVoices, RoleLexicon, RoleDataDir,
}

func matches(p Pattern, lowerName string, isDir bool) bool {
	if p.Dir != isDir {
		return false
	}
	if len(p.Exts) > 0 {
		ext := strings.ToLower(filepath.Ext(lowerName))
		found := false
		for _, want := range p.Exts {
			if ext == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, group := range p.Keywords {
		all := true
		for _, kw := range group {
			if !strings.Contains(lowerName, kw) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func (inv *Inventory) record(role Role, name string, int8Tagged bool) {
	c := inv.candidates[role]
	if c == nil {
		c = &roleCandidates{}
		inv.candidates[role] = c
	}
	if int8Tagged {
		c.int8 = append(c.int8, name)
	} else {
		c.plain = append(c.plain, name)
	}
}

// Has reports whether any file satisfies the role.
func (inv *Inventory) Has(role Role) bool {
	return inv.candidates[role] != nil
}

// Resolve picks the file for a role. With both a quantized and a plain
// candidate present, preferInt8 selects the int8 file; otherwise the plain
// file wins. Candidates keep directory listing order, so repeated scans of
// the same directory resolve identically.
func (inv *Inventory) Resolve(role Role, preferInt8 bool) (string, bool) {
	c := inv.candidates[role]
	if c == nil {
		return "", false
	}
	if preferInt8 && len(c.int8) > 0 {
		return filepath.Join(inv.Dir, c.int8[0]), true
	}
	if len(c.plain) > 0 {
		return filepath.Join(inv.Dir, c.plain[0]), true
	}
	return filepath.Join(inv.Dir, c.int8[0]), true
}

func (inv *Inventory) satisfies(required []Role) bool {
	for _, role := range required {
		if !inv.Has(role) {
			return false
		}
	}
	return true
}
