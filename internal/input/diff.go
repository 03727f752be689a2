package input

// #region diff

// Diff computes the added and removed spans between two content snapshots
// using common prefix/suffix trimming. Pure function, no side effects.
func Diff(before, after string) DiffSummary {
	b := []rune(before)
	a := []rune(after)

	prefix := 0
	for prefix < len(b) && prefix < len(a) && b[prefix] == a[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(b)-prefix && suffix < len(a)-prefix &&
		b[len(b)-1-suffix] == a[len(a)-1-suffix] {
		suffix++
	}

	var out DiffSummary
	if removed := b[prefix : len(b)-suffix]; len(removed) > 0 {
		out.Removed = append(out.Removed, Span{Position: prefix, Text: string(removed)})
	}
	if added := a[prefix : len(a)-suffix]; len(added) > 0 {
		out.Added = append(out.Added, Span{Position: prefix, Text: string(added)})
	}
	return out
}

// #endregion diff
