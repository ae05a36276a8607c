// Package assets maps logical asset kinds to the index files that hold them.
// Different client releases spelled the same file differently, so each kind
// carries a list of candidate names that are matched case-insensitively.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jchantrell/aoind/internal/ind"
)

// Kind is a logical asset type
type Kind string

const (
	Graphics Kind = "graphics"
	Heads    Kind = "heads"
	Helmets  Kind = "helmets"
	Bodies   Kind = "bodies"
	Shields  Kind = "shields"
	Weapons  Kind = "weapons"
	Effects  Kind = "effects"
)

// System selects the record layout used by heads and helmets
type System string

const (
	Directional System = "directional"
	Mold        System = "mold"
)

// spellings lists historical file names per kind, preferred first
var spellings = map[Kind][]string{
	Graphics: {"Graficos.ind", "Graficos3.ind", "Graphics.ind", "grh.ind"},
	Heads:    {"Cabezas.ind", "Head.ind", "Heads.ind", "Cabeza.ind"},
	Helmets:  {"Cascos.ind", "Helmet.ind", "Helmets.ind", "Casco.ind"},
	Bodies:   {"Personajes.ind", "Cuerpos.ind", "Body.ind", "Bodies.ind"},
	Shields:  {"Escudos.ind", "Shield.ind", "Shields.ind"},
	Weapons:  {"Armas.ind", "Weapon.ind", "Weapons.ind"},
	Effects:  {"Fxs.ind", "FX.ind", "Effects.ind"},
}

// Kinds returns every known kind in a stable order
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(spellings))
	for k := range spellings {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := spellings[k]; !ok {
		return "", fmt.Errorf("unknown asset kind '%s'", s)
	}
	return k, nil
}

// ParseSystem validates a head/helmet system name
func ParseSystem(s string) (System, error) {
	switch System(strings.ToLower(s)) {
	case Directional, "":
		return Directional, nil
	case Mold:
		return Mold, nil
	default:
		return "", fmt.Errorf("unknown record system '%s' (want directional or mold)", s)
	}
}

// Spellings returns the candidate file names for a kind
func (k Kind) Spellings() []string {
	return spellings[k]
}

// IsGraphics reports whether the kind is stored in the graphics index format
func (k Kind) IsGraphics() bool {
	return k == Graphics
}

// Shape returns the record shape for the kind. Heads and helmets follow the
// configured system; effects store an id plus offsets like mold records.
func (k Kind) Shape(system System) ind.Shape {
	switch k {
	case Heads, Helmets:
		if system == Mold {
			return ind.ShapeMold
		}
		return ind.ShapeDirectional
	case Effects:
		return ind.ShapeMold
	default:
		return ind.ShapeDirectional
	}
}

// Resolver finds asset files inside one index directory
type Resolver struct {
	dir string
}

// NewResolver creates a resolver rooted at dir
func NewResolver(dir string) *Resolver {
	return &Resolver{dir: dir}
}

// Dir returns the directory being searched
func (r *Resolver) Dir() string {
	return r.dir
}

// Resolve returns the path of the first existing spelling for kind
func (r *Resolver) Resolve(kind Kind) (string, error) {
	names, ok := spellings[kind]
	if !ok {
		return "", fmt.Errorf("unknown asset kind '%s'", kind)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return "", fmt.Errorf("reading index directory %s: %w", r.dir, err)
	}

	byLower := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		if _, exists := byLower[lower]; !exists {
			byLower[lower] = e.Name()
		}
	}

	for _, name := range names {
		if actual, ok := byLower[strings.ToLower(name)]; ok {
			return filepath.Join(r.dir, actual), nil
		}
	}

	return "", &os.PathError{
		Op:   "resolve",
		Path: filepath.Join(r.dir, names[0]),
		Err:  os.ErrNotExist,
	}
}

// Path returns where a new file of kind should be written: the existing file
// when there is one, otherwise the preferred spelling.
func (r *Resolver) Path(kind Kind) string {
	if p, err := r.Resolve(kind); err == nil {
		return p
	}
	return filepath.Join(r.dir, spellings[kind][0])
}

// EnsureDir creates the index directory and its parents
func (r *Resolver) EnsureDir() error {
	return os.MkdirAll(r.dir, 0755)
}
