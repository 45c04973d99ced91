package box

import (
	"fmt"
	"strings"

	"mpdom/utils/debug"
	"mpdom/visual"
)

// Dump returns readable representation of visual tree with computed styles.
// Selected and pressed buckets are printed only when they differ from
// unselected one.
func Dump(n visual.Node) string {
	tw := debug.NewTreeWriter()
	dump(tw, n, 0)
	return tw.String()
}

func dump(tw *debug.TreeWriter, n visual.Node, depth int) {
	var head string
	switch v := n.(type) {
	case *Text:
		head = fmt.Sprintf("%s %q", v.Role(), v.Text())
	case *Image:
		head = fmt.Sprintf("image %q", v.Src)
		if v.Data != nil {
			head += fmt.Sprintf(" (%s %dx%d)", v.Data.Kind, v.Data.Width, v.Data.Height)
		}
	case *Box:
		head = fmt.Sprintf("%s <%s>", v.Role(), v.Name())
	default:
		head = n.Role().String()
	}
	if !n.Visible() {
		head += " hidden"
	}

	plain := describe(n.Style(visual.Unselected))
	tw.Line(depth, "%s%s", head, plain)
	for _, b := range []visual.Bucket{visual.Selected, visual.Pressed} {
		st := n.Style(b)
		if st == nil {
			continue
		}
		if d := describe(st); d != plain {
			tw.Line(depth+1, "[%s]%s", b, d)
		}
	}
	if c, ok := n.(visual.Container); ok {
		for _, ch := range c.Children() {
			dump(tw, ch, depth+1)
		}
	}
}

var decorations = []struct {
	d    visual.Decoration
	name string
}{
	{visual.DecorationUnderline, "underline"},
	{visual.DecorationOverline, "overline"},
	{visual.DecorationLineThrough, "line-through"},
}

func describe(st *visual.Style) string {
	if st == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, " fg=%s", st.FgColor)
	if !st.BgTransparent {
		fmt.Fprintf(&sb, " bg=%s", st.BgColor)
	}
	if st.BgImage != nil {
		fmt.Fprintf(&sb, " bg-image=%q", st.BgImage.URL)
	}
	if st.Font != nil {
		fmt.Fprintf(&sb, " font=%q", st.Font.String())
	}
	if st.Margin != [4]int{} {
		fmt.Fprintf(&sb, " margin=%v", st.Margin)
	}
	if st.Padding != [4]int{} {
		fmt.Fprintf(&sb, " padding=%v", st.Padding)
	}
	if !st.Border.Empty() {
		sb.WriteString(" border=")
		for i, s := range st.Border.Sides {
			if i > 0 {
				sb.WriteByte('/')
			}
			if s == nil {
				sb.WriteString("-")
				continue
			}
			fmt.Fprintf(&sb, "%d %s", s.Width, s.Style)
			if s.HasColor {
				fmt.Fprintf(&sb, " %s", s.Color)
			}
		}
	}
	if st.Align != visual.AlignLeft {
		fmt.Fprintf(&sb, " align=%s", st.Align)
	}
	if st.Indent != 0 {
		fmt.Fprintf(&sb, " indent=%d", st.Indent)
	}
	for _, d := range decorations {
		if st.Decoration&d.d != 0 {
			sb.WriteString(" " + d.name)
		}
	}
	if st.Width > 0 || st.Height > 0 {
		fmt.Fprintf(&sb, " size=%dx%d", st.Width, st.Height)
	}
	return sb.String()
}
