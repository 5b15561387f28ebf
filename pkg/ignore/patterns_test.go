package ignore

import "testing"

func TestShouldIgnoreMatchesDoubleStarPrefix(t *testing.T) {
	m := NewMatcher([]string{"node_modules/**"})

	if !m.ShouldIgnore("node_modules/left-pad/index.js") {
		t.Fatal("expected node_modules/** to match a nested path")
	}
	if m.ShouldIgnore("src/node_modules_helper.js") {
		t.Fatal("did not expect node_modules/** to match an unrelated file")
	}
}

func TestShouldIgnoreMatchesFilenameGlob(t *testing.T) {
	m := NewMatcher(DefaultPatterns())

	if !m.ShouldIgnore("dist/bundle.min.js") {
		t.Fatal("expected **/*.min.js to match a minified file under dist")
	}
	if m.ShouldIgnore("src/app.js") {
		t.Fatal("did not expect a plain source file to be ignored")
	}
}

func TestShouldIgnoreReturnsFalseWithNoPatterns(t *testing.T) {
	m := NewMatcher(nil)
	if m.ShouldIgnore("anything/at/all.go") {
		t.Fatal("expected no patterns to mean nothing is ignored")
	}
}
