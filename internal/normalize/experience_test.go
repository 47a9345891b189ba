package normalize

import (
	"testing"

	"github.com/jonathan/cv-intake/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestExperienceDates(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "numeric day-first range",
			input:    "07/01/2025-06/05/2025",
			expected: "(Jan 2025 - May 2025)",
		},
		{
			name:     "numeric range to present",
			input:    "Acme Corp - Developer 15/03/2022 - present",
			expected: "Acme Corp - Developer (Mar 2022 - Present)",
		},
		{
			name:     "month month year",
			input:    "Beta Labs - Intern June - August 2023",
			expected: "Beta Labs - Intern (Jun 2023 - Aug 2023)",
		},
		{
			name:     "bare year range wrapped",
			input:    "Infosys - Software Engineer 2019-2021",
			expected: "Infosys - Software Engineer (2019 - 2021)",
		},
		{
			name:     "month year range wrapped",
			input:    "TCS - Analyst January 2018 – March 2019",
			expected: "TCS - Analyst (Jan 2018 - Mar 2019)",
		},
		{
			name:     "pipe separated positions",
			input:    "Senior Developer at ABC Corp (2021-2023) | Software Engineer at XYZ Ltd (2019-2021)",
			expected: "Senior Developer at ABC Corp (2021 - 2023), Software Engineer at XYZ Ltd (2019 - 2021)",
		},
		{
			name:     "company location noise removed",
			input:    "Acme Corp, Pune, Maharashtra – Backend Engineer (2020 - Present)",
			expected: "Acme Corp - Backend Engineer (2020 - Present)",
		},
		{
			name:     "trailing place kept when no dash follows",
			input:    "Infosys, Bangalore (2019-2021)",
			expected: "Infosys, Bangalore (2019 - 2021)",
		},
		{
			name:     "en dash normalized",
			input:    "Wipro – QA Engineer (2017 – 2018)",
			expected: "Wipro - QA Engineer (2017 - 2018)",
		},
		{
			name:     "hyphenated words untouched",
			input:    "Globex - Full-Stack Developer (2020 - 2022)",
			expected: "Globex - Full-Stack Developer (2020 - 2022)",
		},
		{
			name:     "invalid month left alone",
			input:    "Initech - Dev 01/13/2020-01/02/2021",
			expected: "Initech - Dev 01/13/2020-01/02/2021",
		},
		{
			name:     "sentinel",
			input:    types.NotAvailable,
			expected: types.NotAvailable,
		},
		{
			name:     "fresher sentinel passes through",
			input:    types.FresherSentinel,
			expected: types.FresherSentinel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExperienceDates(tt.input))
		})
	}
}

func TestExperienceDates_Idempotent(t *testing.T) {
	inputs := []string{
		"07/01/2025-06/05/2025",
		"Acme Corp, Pune - Engineer (Jan 2020 - Present), Beta Corp - QA (2018 - 2019)",
		"Beta Labs - Intern June - August 2023 | Gamma Inc - Lead 2015–2018",
		"(Jan 2025 - May 2025)",
		"Infosys, Bangalore (2019-2021)",
		"Globex - Full-Stack Developer 2020 - 2022",
	}
	for _, in := range inputs {
		once := ExperienceDates(in)
		assert.Equal(t, once, ExperienceDates(once), "input %q", in)
	}
}
