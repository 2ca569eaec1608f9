package search

// Country is the search definition for Country documents. A name
// matches against the full, short, and alternate names.
func Country() Definition {
	return Definition{
		Doctype: "Country",
		Fields: []Field{
			{
				Name:  "name",
				Label: "Country Name",
				Kind:  FreeText,
				Match: MatchContains,
				Paths: []string{
					"/Country/CountryFullName",
					"/Country/CountryShortName",
					"/Country/CountryAlternateName",
				},
			},
		},
		DisplayFilter: "set:QC Country Set",
	}
}

// Definitions maps doctype names to their search definitions; the
// search endpoint looks its doctype up here.
func Definitions() map[string]Definition {
	defs := map[string]Definition{}
	for _, def := range []Definition{Country()} {
		defs[def.Doctype] = def
	}
	return defs
}
