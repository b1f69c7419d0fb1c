package main

import "testing"

func TestViolationReason(t *testing.T) {
	tests := []struct {
		name     string
		importer string
		imported string
		wantHit  bool
	}{
		{name: "contract importing internal", importer: "redactado/pkg/redactado", imported: "redactado/internal/kernel", wantHit: true},
		{name: "module importing kernel", importer: "redactado/modules/help", imported: "redactado/internal/kernel", wantHit: true},
		{name: "kernel importing gateway", importer: "redactado/internal/kernel", imported: "redactado/internal/gateway/discord", wantHit: true},
		{name: "gateway importing kernel", importer: "redactado/internal/gateway/telegram", imported: "redactado/internal/kernel", wantHit: true},
		{name: "module importing contract", importer: "redactado/modules/ping", imported: "redactado/pkg/redactado"},
		{name: "composition root importing everything", importer: "redactado/cmd/bot", imported: "redactado/internal/gateway/discord"},
		{name: "kernel importing errtrack", importer: "redactado/internal/kernel", imported: "redactado/internal/errtrack"},
		{name: "third party import", importer: "redactado/internal/kernel", imported: "golang.org/x/sync/singleflight"},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			reason := violationReason(testCase.importer, testCase.imported)
			if (reason != "") != testCase.wantHit {
				t.Fatalf("violationReason(%q, %q) = %q, want hit %v", testCase.importer, testCase.imported, reason, testCase.wantHit)
			}
		})
	}
}

func TestCollectViolationsDeduplicatesAndSorts(t *testing.T) {
	t.Parallel()

	violations := collectViolations([]listedPackage{
		{
			ImportPath:  "redactado/modules/ping",
			Imports:     []string{"redactado/internal/kernel", "redactado/pkg/redactado"},
			TestImports: []string{"redactado/internal/kernel"},
		},
		{
			ImportPath: "redactado/internal/kernel",
			Imports:    []string{"redactado/internal/gateway/discord"},
		},
	})
	if len(violations) != 2 {
		t.Fatalf("violations = %v, want 2 entries", violations)
	}
	if violations[0] > violations[1] {
		t.Fatalf("violations not sorted: %v", violations)
	}
}
