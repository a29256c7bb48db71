package scan

import "testing"

func TestPathFilterReason(t *testing.T) {
	f := newPathFilter([]string{"png", ".JPG", " "}, []string{"Straße", "wip"})

	cases := map[string]string{
		"/pics/a.png":              "",
		"/pics/b.JPG":              "",
		"/pics/c.gif":              "extension",
		"/pics/noext":              "extension",
		"/pics/STRASSE/d.png":      "blacklisted",
		"/pics/old_WIP_folder.png": "blacklisted",
	}
	for path, want := range cases {
		if got := f.reason(path); got != want {
			t.Errorf("reason(%q) = %q, want %q", path, got, want)
		}
	}
}
