package api

import "sort"

// SortedLanguages returns the keys of packs in ascending order. All
// code that walks a PacksByLanguage goes through here so iteration is
// deterministic.
func (packs PacksByLanguage) SortedLanguages() []Language {
	languages := make([]Language, 0, len(packs))
	for language := range packs {
		languages = append(languages, language)
	}
	SortLanguages(languages)
	return languages
}

// SortLanguages sorts languages in place by name.
func SortLanguages(languages []Language) {
	sort.Slice(languages, func(i, j int) bool {
		return languages[i] < languages[j]
	})
}

// ContainsLanguage reports whether language is in languages.
func ContainsLanguage(languages []Language, language Language) bool {
	for _, l := range languages {
		if l == language {
			return true
		}
	}
	return false
}
