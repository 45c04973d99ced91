package dom

import (
	"github.com/beevik/etree"
)

// XHTML re-serializes tree. Only supported tags and attributes survive
// parsing, so the result is the normalized form of the source document.
func (e *Element) XHTML() *etree.Document {
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	if e.tag == TagRoot {
		for _, c := range e.children {
			c.appendTo(&doc.Element)
		}
	} else {
		e.appendTo(&doc.Element)
	}
	return doc
}

func (e *Element) appendTo(parent *etree.Element) {
	if e.tag == TagText {
		parent.CreateText(e.text)
		return
	}
	el := parent.CreateElement(e.name)
	for _, av := range e.Attributes() {
		v := av.Value
		// minimized boolean attributes are spelled out in XHTML
		if v == "" && attrSpecs[av.Attr].kind == kindBool {
			v = av.Attr.String()
		}
		el.CreateAttr(av.Attr.String(), v)
	}
	for _, c := range e.children {
		c.appendTo(el)
	}
}
