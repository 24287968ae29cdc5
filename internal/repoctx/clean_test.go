package repoctx

import (
	"strings"
	"testing"
)

func TestStripLicenseHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "block comment",
			in:   "/* Copyright 2024 MIT License */\nimport os\n",
			want: "import os\n",
		},
		{
			name: "hash comments",
			in:   "# Copyright 2024 Acme Corp\n# Licensed under Apache 2.0\n\nimport os\n",
			want: "import os\n",
		},
		{
			name: "double slash with spdx",
			in:   "// Copyright 2024 Google LLC\n// SPDX-License-Identifier: Apache-2.0\n\npackage main\n",
			want: "package main\n",
		},
		{
			name: "mit block",
			in:   "/*\n * Permission is hereby granted, free of charge, to any person\n * obtaining a copy of this software...\n */\nconst x = 1;\n",
			want: "const x = 1;\n",
		},
		{
			name: "regular comment untouched",
			in:   "# This is a regular comment\nimport os\n",
			want: "# This is a regular comment\nimport os\n",
		},
		{
			name: "no comments untouched",
			in:   "import os\nprint('hello')\n",
			want: "import os\nprint('hello')\n",
		},
		{
			name: "non-license block comment untouched",
			in:   "/* helpers */\nint x;\n",
			want: "/* helpers */\nint x;\n",
		},
		{
			name: "sql and rem comments",
			in:   "-- Redistribution allowed\nrem see LICENSE\nSELECT 1;\n",
			want: "SELECT 1;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripLicenseHeader(tt.in); got != tt.want {
				t.Fatalf("StripLicenseHeader(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanCollapsesBlankLines(t *testing.T) {
	if got := Clean("line1\n\n\n\n\nline2\n"); got != "line1\n\nline2" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanStripsTrailingWhitespace(t *testing.T) {
	if got := Clean("line1   \nline2  \n"); got != "line1\nline2" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanStripsLicenseAndNormalises(t *testing.T) {
	if got := Clean("# Copyright 2024\n\n\n\n\nimport os   \n"); got != "import os" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanStripsHTMLAvatarBlocks(t *testing.T) {
	got := Clean("Some text\n<a href=\"https://github.com/user\"><img src=\"avatar.png\"></a>\nMore text")
	if strings.Contains(got, "<img") {
		t.Fatalf("avatar markup survived: %q", got)
	}
	if !strings.Contains(got, "Some text") || !strings.Contains(got, "More text") {
		t.Fatalf("surrounding text lost: %q", got)
	}
}

func TestCleanStripsBadges(t *testing.T) {
	got := Clean("# Project\n![build](https://img.shields.io/badge/build-passing-green)\n[![ci](https://ci.example/badge.svg)](https://ci.example)\nDescription")
	if strings.Contains(got, "img.shields.io") || strings.Contains(got, "ci.example") {
		t.Fatalf("badge survived: %q", got)
	}
	if !strings.Contains(got, "# Project") || !strings.Contains(got, "Description") {
		t.Fatalf("surrounding text lost: %q", got)
	}
}

func TestCleanKeepsOrdinaryImages(t *testing.T) {
	in := "![diagram](docs/arch.png)"
	if got := Clean(in); got != in {
		t.Fatalf("got %q", got)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"/* Copyright 2024 MIT License */\nimport os\n",
		"# Title   \n\n\n\n![b](https://img.shields.io/x)\n<A HREF=\"x\"> <IMG src=\"y\"> </A>\nbody\t\n",
		"  leading\n\n\n\ntrailing  \n\n",
		"",
		"plain",
		"a\n \n \n \nb",
		"/* Copyright 2024 */\n# Licensed under MIT\nx",
		"![b](https://img.shields.io/x)\n# Copyright Acme\nbody",
	}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Fatalf("Clean not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCleanCollapsesWhitespaceOnlyLines(t *testing.T) {
	if got := Clean("a\n \n \n \nb"); got != "a\n\nb" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanStripsStackedLicenseHeaders(t *testing.T) {
	if got := Clean("/* Copyright 2024 */\n# Licensed under MIT\nx"); got != "x" {
		t.Fatalf("got %q", got)
	}
}
