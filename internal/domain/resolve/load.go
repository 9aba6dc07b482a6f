package resolve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/semr/etl/internal/domain/chart"
)

// Table file names under the tables directory.
const (
	fileCodeRoots = "code_roots.json"
	fileGroups    = "groups.json"
	fileRoots     = "root_details.json"
	fileRanges    = "display_ranges.json"
	fileSexRanges = "sex_normal_ranges.json"
)

// Load reads the full resolution set from a directory of JSON table files.
// The set is small enough to hold in memory for the whole run.
func Load(dir string) (*Tables, error) {
	t := &Tables{
		codeToRoot: map[string]string{},
		rootCodes:  map[string][]string{},
		rootGroup:  map[string]string{},
		roots:      map[string]RootDetail{},
		ranges:     map[string]chart.RangeSpec{},
		sexNormal:  map[string]map[string]chart.NormalRange{},
	}

	if err := readTable(dir, fileCodeRoots, &t.codeToRoot); err != nil {
		return nil, err
	}
	for code, root := range t.codeToRoot {
		t.rootCodes[root] = append(t.rootCodes[root], code)
	}
	// Deterministic fan-in order regardless of map iteration.
	for root := range t.rootCodes {
		sort.Strings(t.rootCodes[root])
	}

	if err := readTable(dir, fileGroups, &t.groups); err != nil {
		return nil, err
	}
	sort.Slice(t.groups, func(i, j int) bool { return t.groups[i].Rank < t.groups[j].Rank })
	seenRank := map[int]string{}
	for _, g := range t.groups {
		if prev, dup := seenRank[g.Rank]; dup {
			return nil, fmt.Errorf("groups %q and %q share display rank %d", prev, g.Name, g.Rank)
		}
		seenRank[g.Rank] = g.Name
		for _, root := range g.Roots {
			if prev, dup := t.rootGroup[root]; dup {
				return nil, fmt.Errorf("root %q belongs to both %q and %q", root, prev, g.Name)
			}
			t.rootGroup[root] = g.Name
		}
	}

	if err := readTable(dir, fileRoots, &t.roots); err != nil {
		return nil, err
	}

	var rawRanges map[string][4]float64 // [display_min, normal_min, normal_max, display_max]
	if err := readTable(dir, fileRanges, &rawRanges); err != nil {
		return nil, err
	}
	for root, r := range rawRanges {
		t.ranges[root] = chart.RangeSpec{
			DisplayMin: r[0], NormalMin: r[1], NormalMax: r[2], DisplayMax: r[3],
		}
	}

	var rawSex map[string]map[string][2]*float64
	if err := readTable(dir, fileSexRanges, &rawSex); err != nil {
		return nil, err
	}
	for sex, rollups := range rawSex {
		t.sexNormal[sex] = map[string]chart.NormalRange{}
		for rollup, bounds := range rollups {
			t.sexNormal[sex][rollup] = chart.NormalRange{Low: bounds[0], High: bounds[1]}
		}
	}

	return t, nil
}

func readTable(dir, name string, out any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read resolution table %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode resolution table %s: %w", name, err)
	}
	return nil
}
