package export

import "testing"

func TestSanitizeFilenameReplacesReservedCharacters(t *testing.T) {
	got := sanitizeFilename(`a<b>c:d"e/f\g|h?i*j`)
	want := "a_b_c_d_e_f_g_h_i_j"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSanitizeFilenameTrimsTrailingDotsAndSpaces(t *testing.T) {
	got := sanitizeFilename("clip name.. ")
	if got != "clip name" {
		t.Fatalf("expected trailing dots/spaces trimmed, got %q", got)
	}
}

func TestSanitizeFilenameAvoidsWindowsReservedNames(t *testing.T) {
	for _, name := range []string{"CON", "con", "LPT1", "com9"} {
		got := sanitizeFilename(name)
		if got == name {
			t.Fatalf("expected reserved name %q to be escaped, got unchanged", name)
		}
	}
}

func TestResolveNameExpandsTokens(t *testing.T) {
	got := ResolveName("{name}_{gain_db}", "clip", -3.25, true)
	want := "clip_-3.3dB"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestResolveNameWithoutGainOmitsToken(t *testing.T) {
	got := ResolveName("{name}{gain_db}", "clip", 0, false)
	if got != "clip" {
		t.Fatalf("expected bare stem, got %q", got)
	}
}

func TestResolveExtensionPrefersPerItemThenGlobalThenSource(t *testing.T) {
	supported := map[string]bool{"wav": true, "mp3": true}

	if ext, ok := ResolveExtension("mp3", "", "wav", supported); !ok || ext != "mp3" {
		t.Fatalf("expected per-item override to win, got %q ok=%v", ext, ok)
	}
	if ext, ok := ResolveExtension("", "mp3", "wav", supported); !ok || ext != "mp3" {
		t.Fatalf("expected global override to win, got %q ok=%v", ext, ok)
	}
	if ext, ok := ResolveExtension("", "", "wav", supported); !ok || ext != "wav" {
		t.Fatalf("expected source extension fallback, got %q ok=%v", ext, ok)
	}
}

func TestResolveExtensionRejectsUnsupported(t *testing.T) {
	supported := map[string]bool{"wav": true}
	if _, ok := ResolveExtension("xyz", "", "wav", supported); ok {
		t.Fatal("expected unsupported per-item override to be rejected")
	}
}
