package mcpserver

func describeDetect() string {
	return `Finds copy/paste duplication by comparing token sequences across files.

USE WHEN:
- Looking for copy-pasted code that should be extracted into a shared function
- Checking whether a change introduced new duplication
- Ranking files by how much of their content is duplicated

INTERPRETING RESULTS:
- Each clone pairs a later copy (file_b) with the earliest place the same code appears (file_a)
- Matching ignores whitespace and comments, so reformatted copies still match
- Renamed identifiers break a match; clones are exact token-for-token copies
- A clone is reported only when it spans more than min_lines lines and at least min_tokens tokens
- file_a and file_b may be the same file when code is repeated inside it

METRICS RETURNED:
- Clones: file_a/start_line_a/end_line_a, file_b/start_line_b/end_line_b, lines, tokens
- Files: duplicated lines, total lines and ratio per file, most duplicated first
- Summary: duplicated line ratio, clone counts, clone size mean/p50/p95, thresholds used

Lower min_tokens finds shorter copies at the cost of more noise.`
}

func describeTokenize() string {
	return `Lists the tokens of one file exactly as the duplicate detector sees them.

USE WHEN:
- Explaining why two snippets did or did not match
- Checking which lexer and token kinds apply to a file type

INTERPRETING RESULTS:
- Tokens marked ignored (whitespace, comments, markup) never take part in matching
- Two regions match only when their significant tokens have the same kind and text

METRICS RETURNED:
- Per token: line, kind, text, ignored
- Counts of all tokens and significant tokens`
}
