package app

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("VITALIS_TEST_STR", "  value  ")
	t.Setenv("VITALIS_TEST_BOOL", "true")
	t.Setenv("VITALIS_TEST_INT", "42")
	t.Setenv("VITALIS_TEST_DUR", "90s")
	t.Setenv("VITALIS_TEST_LIST", "a, b ,,c")

	if got := EnvString("VITALIS_TEST_STR", "def"); got != "value" {
		t.Fatalf("EnvString=%q", got)
	}
	if got := EnvString("VITALIS_TEST_UNSET", "def"); got != "def" {
		t.Fatalf("EnvString default=%q", got)
	}
	if !EnvBool("VITALIS_TEST_BOOL", false) {
		t.Fatalf("EnvBool should parse true")
	}
	if got := EnvInt("VITALIS_TEST_INT", 1); got != 42 {
		t.Fatalf("EnvInt=%d", got)
	}
	if got := EnvDuration("VITALIS_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("EnvDuration=%v", got)
	}
	got := EnvStrings("VITALIS_TEST_LIST", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("EnvStrings=%v", got)
	}
}

func TestEnvHelpersRejectGarbage(t *testing.T) {
	t.Setenv("VITALIS_TEST_BOOL", "definitely")
	t.Setenv("VITALIS_TEST_INT", "-5")
	t.Setenv("VITALIS_TEST_INT32", "-1")
	t.Setenv("VITALIS_TEST_DUR", "fast")
	t.Setenv("VITALIS_TEST_LIST", " , ,")

	if EnvBool("VITALIS_TEST_BOOL", false) {
		t.Fatalf("garbage bool must fall back")
	}
	if got := EnvInt("VITALIS_TEST_INT", 7); got != 7 {
		t.Fatalf("negative int must fall back: %d", got)
	}
	if got := EnvInt32("VITALIS_TEST_INT32", 3); got != 3 {
		t.Fatalf("negative int32 must fall back: %d", got)
	}
	if got := EnvDuration("VITALIS_TEST_DUR", time.Minute); got != time.Minute {
		t.Fatalf("garbage duration must fall back: %v", got)
	}
	got := EnvStrings("VITALIS_TEST_LIST", []string{"x"})
	if len(got) != 1 || got[0] != "x" {
		t.Fatalf("blank list must fall back: %v", got)
	}
}
