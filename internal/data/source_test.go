package data

import (
	"errors"
	"testing"
)

func TestSourceURLs(t *testing.T) {
	s := Source{BaseURL: "https://github.com/rileycochrell/rc-EJI-Visualization-NM-3try/raw/refs/heads/main/data/"}

	testCases := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "state 2022",
			got:  s.StateURL("2022"),
			want: "https://github.com/rileycochrell/rc-EJI-Visualization-NM-3try/raw/refs/heads/main/data/2022/clean/2022EJI_StateAverages_RPL.csv",
		},
		{
			name: "county 2024",
			got:  s.CountyURL("2024"),
			want: "https://github.com/rileycochrell/rc-EJI-Visualization-NM-3try/raw/refs/heads/main/data/2024/clean/2024EJI_NewMexico_CountyMeans.csv",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, tc.got)
			}
		})
	}
}

func TestFiles(t *testing.T) {
	files := Source{BaseURL: "http://x"}.Files("2024")
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(files))
	}
	if files[0].Kind != KindState || files[0].Table() != "state_2024" {
		t.Errorf("Unexpected state file %+v", files[0])
	}
	if files[1].Kind != KindCounty || files[1].Table() != "county_2024" {
		t.Errorf("Unexpected county file %+v", files[1])
	}
	if got := files[1].LocalPath("/data"); got != "/data/2024/2024EJI_NewMexico_CountyMeans.csv" {
		t.Errorf("Unexpected local path %s", got)
	}
	if n := len((Source{}).AllFiles()); n != 4 {
		t.Errorf("Expected 4 files across supported years, got %d", n)
	}
}

func TestValidYear(t *testing.T) {
	for _, y := range []string{"2022", "2024"} {
		if err := ValidYear(y); err != nil {
			t.Errorf("Expected %s to be supported: %v", y, err)
		}
	}
	for _, y := range []string{"2020", "", "2023"} {
		if err := ValidYear(y); !errors.Is(err, ErrUnsupportedYear) {
			t.Errorf("Expected ErrUnsupportedYear for %q, got %v", y, err)
		}
	}
}

func TestDataLoadError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&DataLoadError{Year: "2022", Source: "http://x/a.csv", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("Expected DataLoadError to unwrap to its cause")
	}
	var dle *DataLoadError
	if !errors.As(err, &dle) || dle.Year != "2022" {
		t.Errorf("Expected errors.As to find the DataLoadError, got %v", err)
	}
	want := "failed to load EJI data for 2022 from http://x/a.csv: connection refused"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
