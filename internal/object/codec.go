package object

import (
	"strconv"
	"strings"

	"gitlite/internal/gliterr"
)

// Encode renders a commit in the canonical five-line textual form:
// Message, Time, Parents, Merge, Blobs. Parents and Blobs are comma-separated;
// Blobs pairs are "filename:blob-id" in ascending filename order. Encoding the
// result of Decode reproduces the stored bytes exactly.
func Encode(c *Commit) []byte {
	var sb strings.Builder

	sb.WriteString("Message:")
	sb.WriteString(c.Message)
	sb.WriteString("\n")

	sb.WriteString("Time:")
	sb.WriteString(strconv.FormatInt(c.Timestamp, 10))
	sb.WriteString("\n")

	sb.WriteString("Parents:")
	sb.WriteString(strings.Join(c.Parents, ","))
	sb.WriteString("\n")

	sb.WriteString("Merge:")
	sb.WriteString(c.MergeInfo)
	sb.WriteString("\n")

	sb.WriteString("Blobs:")
	for i, name := range c.SortedFiles() {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(c.Tree[name])
	}
	sb.WriteString("\n")

	return []byte(sb.String())
}

// Decode parses the textual commit form and recomputes the id. Lines may
// appear in any order; Message and Time are required.
func Decode(data []byte) (*Commit, error) {
	var (
		message   string
		timestamp int64
		parents   []string
		tree      = map[string]string{}
		mergeInfo string

		sawMessage, sawTime bool
	)

	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, "Message:"):
			message = strings.TrimPrefix(line, "Message:")
			sawMessage = true
		case strings.HasPrefix(line, "Time:"):
			v, err := strconv.ParseInt(strings.TrimPrefix(line, "Time:"), 10, 64)
			if err != nil {
				return nil, gliterr.Wrap(gliterr.KindCorruptObject, err)
			}
			timestamp = v
			sawTime = true
		case strings.HasPrefix(line, "Parents:"):
			raw := strings.TrimPrefix(line, "Parents:")
			if raw != "" {
				parents = strings.Split(raw, ",")
			}
		case strings.HasPrefix(line, "Merge:"):
			mergeInfo = strings.TrimPrefix(line, "Merge:")
		case strings.HasPrefix(line, "Blobs:"):
			raw := strings.TrimPrefix(line, "Blobs:")
			if raw == "" {
				continue
			}
			for _, pair := range strings.Split(raw, ",") {
				name, id, ok := strings.Cut(pair, ":")
				if !ok || name == "" || id == "" {
					return nil, gliterr.Newf(gliterr.KindCorruptObject, "malformed blob entry %q", pair)
				}
				tree[name] = id
			}
		}
	}

	if !sawMessage || !sawTime {
		return nil, gliterr.Newf(gliterr.KindCorruptObject, "not a commit object")
	}

	c := NewCommit(message, timestamp, parents, tree)
	c.MergeInfo = mergeInfo
	return c, nil
}
