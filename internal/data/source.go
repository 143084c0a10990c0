// Package data downloads the published EJI CSVs, ingests them into DuckDB and
// serves each year's normalized tables from a process-lifetime cache.
package data

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// SupportedYears are the EJI releases with cleaned New Mexico extracts.
var SupportedYears = []string{"2022", "2024"}

// ValidYear returns ErrUnsupportedYear unless year is in SupportedYears.
func ValidYear(year string) error {
	if !slices.Contains(SupportedYears, year) {
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedYear, year, strings.Join(SupportedYears, ", "))
	}
	return nil
}

// Kind distinguishes the two tables published per year.
type Kind string

const (
	KindState  Kind = "state"
	KindCounty Kind = "county"
)

// DataFile is one CSV to download and ingest.
type DataFile struct {
	Year string
	Kind Kind
	Name string
	URL  string
}

// LocalPath is where the file is kept under dataDir.
func (f DataFile) LocalPath(dataDir string) string {
	return filepath.Join(dataDir, f.Year, f.Name)
}

// Table is the DuckDB table the file is loaded into.
func (f DataFile) Table() string {
	return TableName(f.Kind, f.Year)
}

// TableName is e.g. county_2024.
func TableName(kind Kind, year string) string {
	return fmt.Sprintf("%s_%s", kind, year)
}

// Source resolves download URLs under a base URL laid out as
// {base}/{year}/clean/{file}.
type Source struct {
	BaseURL string
}

// StateFileName is the statewide averages file for year.
func StateFileName(year string) string {
	return year + "EJI_StateAverages_RPL.csv"
}

// CountyFileName is the New Mexico county means file for year.
func CountyFileName(year string) string {
	return year + "EJI_NewMexico_CountyMeans.csv"
}

func (s Source) url(year, name string) string {
	return fmt.Sprintf("%s/%s/clean/%s", strings.TrimRight(s.BaseURL, "/"), year, name)
}

// StateURL is the state table URL for year.
func (s Source) StateURL(year string) string {
	return s.url(year, StateFileName(year))
}

// CountyURL is the county table URL for year.
func (s Source) CountyURL(year string) string {
	return s.url(year, CountyFileName(year))
}

// Files lists the state and county files for year.
func (s Source) Files(year string) []DataFile {
	return []DataFile{
		{Year: year, Kind: KindState, Name: StateFileName(year), URL: s.StateURL(year)},
		{Year: year, Kind: KindCounty, Name: CountyFileName(year), URL: s.CountyURL(year)},
	}
}

// AllFiles lists the files for every supported year.
func (s Source) AllFiles() []DataFile {
	var out []DataFile
	for _, y := range SupportedYears {
		out = append(out, s.Files(y)...)
	}
	return out
}
