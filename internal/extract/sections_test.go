package extract

import "testing"

// TestFindSections tests label segmentation of flattened body text.
func TestFindSections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		expected Sections
	}{
		{
			name:     "question and plain answer",
			text:     "Soalan: Apakah hukum X? Jawapan: Hukumnya harus.",
			expected: Sections{Question: "Apakah hukum X?", Answer: "Hukumnya harus."},
		},
		{
			name: "question with summary and detail",
			text: "Soalan: Q? Ringkasan Jawapan: Ringkas. Huraian Jawapan: Panjang.",
			expected: Sections{
				Question: "Q?",
				Summary:  "Ringkas.",
				Detail:   "Panjang.",
				Answer:   "Ringkas. Huraian Jawapan: Panjang.",
			},
		},
		{
			name:     "labels without colon",
			text:     "Soalan Q? Jawapan A",
			expected: Sections{Question: "Q?", Answer: "A"},
		},
		{
			name:     "case insensitive",
			text:     "SOALAN : Q? JAWAPAN : A",
			expected: Sections{Question: "Q?", Answer: "A"},
		},
		{
			name:     "unicode whitespace inside labels",
			text:     "Soalan\u00a0:\u00a0Q?\u2028Ringkasan\u00a0Jawapan: R",
			expected: Sections{Question: "Q?", Summary: "R", Answer: "R"},
		},
		{
			name:     "preamble bounded by answer",
			text:     "Mukadimah: Pengenalan. Jawapan: A",
			expected: Sections{Preamble: "Pengenalan.", Answer: "A"},
		},
		{
			name:     "question runs to end without answer label",
			text:     "Soalan: Q tanpa penutup",
			expected: Sections{Question: "Q tanpa penutup"},
		},
		{
			name:     "label embedded in a word",
			text:     "Persoalan ini penting.",
			expected: Sections{Question: "ini penting."},
		},
		{
			name:     "no labels",
			text:     "Teks biasa sahaja.",
			expected: Sections{},
		},
		{
			name:     "empty label capture",
			text:     "Soalan: Jawapan: A",
			expected: Sections{Answer: "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FindSections(tt.text)
			if got != tt.expected {
				t.Errorf("FindSections(%q)\n got: %+v\nwant: %+v", tt.text, got, tt.expected)
			}
		})
	}
}

// TestSectionsCombinedAnswer tests CombinedAnswer.
func TestSectionsCombinedAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sections Sections
		expected string
	}{
		{"both", Sections{Summary: "R", Detail: "H"}, "Ringkasan Jawapan: R\n\nHuraian Jawapan: H"},
		{"summary only", Sections{Summary: "R"}, "Ringkasan Jawapan: R"},
		{"detail only", Sections{Detail: "H"}, "Huraian Jawapan: H"},
		{"neither", Sections{Answer: "A"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.sections.CombinedAnswer(); got != tt.expected {
				t.Errorf("CombinedAnswer() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
