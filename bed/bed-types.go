package bed

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/exascience/conservomatic/utils"
)

// Bed is a struct for representing the contents of a BED file. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
type Bed struct {
	// Maps chromosome name onto bed regions.
	RegionMap map[utils.Symbol][]*Region
	// Chromosomes in order of first appearance.
	Chroms []utils.Symbol
}

// A Region is a struct for representing intervals as defined in a BED
// file. Start is 0-based inclusive, End is exclusive.
type Region struct {
	Chrom  utils.Symbol
	Start  int64
	End    int64
	Name   string
	Score  int
	Strand byte
}

// Valid bed region optional fields, in file order.
const (
	brName = iota
	brScore
	brStrand
)

// NewRegion allocates and initializes a new Region. Optional fields
// are given in order. Fields beyond the strand are ignored.
func NewRegion(chrom utils.Symbol, start, end int64, fields []string) (*Region, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid BED interval %v-%v on %v", start, end, *chrom)
	}
	region := &Region{Chrom: chrom, Start: start, End: end}
	for i, val := range fields {
		switch i {
		case brName:
			region.Name = val
		case brScore:
			score, err := strconv.Atoi(val)
			if err != nil || score < 0 || score > 1000 {
				return nil, fmt.Errorf("invalid Score field: %v", val)
			}
			region.Score = score
		case brStrand:
			if val != "+" && val != "-" && val != "." {
				return nil, fmt.Errorf("invalid Strand field: %v", val)
			}
			region.Strand = val[0]
		}
	}
	return region, nil
}

// Len returns the number of bases covered by the region.
func (region *Region) Len() int64 {
	return region.End - region.Start
}

// NewBed allocates and initializes an empty bed.
func NewBed() *Bed {
	return &Bed{
		RegionMap: make(map[utils.Symbol][]*Region),
	}
}

// AddRegion adds a region to the bed region map.
func (bed *Bed) AddRegion(region *Region) {
	regions, ok := bed.RegionMap[region.Chrom]
	if !ok {
		bed.Chroms = append(bed.Chroms, region.Chrom)
	}
	bed.RegionMap[region.Chrom] = append(regions, region)
}

// A function for sorting the bed regions.
func (bed *Bed) sortRegions() {
	for _, regions := range bed.RegionMap {
		sort.SliceStable(regions, func(i, j int) bool {
			return regions[i].Start < regions[j].Start
		})
	}
}
