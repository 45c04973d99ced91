package dom

import "strings"

// Tag identifies element kind. The set is closed: names not listed here
// resolve to TagUnsupported.
type Tag int

const (
	TagUnsupported Tag = iota
	TagText
	TagRoot

	TagHTML
	TagHead
	TagBody
	TagTitle
	TagMeta
	TagLink
	TagStyle
	TagBase

	TagP
	TagDiv
	TagSpan
	TagBr
	TagHr
	TagPre
	TagBlockquote
	TagAddress
	TagCenter
	TagH1
	TagH2
	TagH3
	TagH4
	TagH5
	TagH6

	TagA
	TagB
	TagI
	TagU
	TagS
	TagStrike
	TagEm
	TagStrong
	TagBig
	TagSmall
	TagSub
	TagSup
	TagTt
	TagCode
	TagSamp
	TagKbd
	TagVar
	TagCite
	TagDfn
	TagAbbr
	TagAcronym
	TagQ
	TagIns
	TagDel
	TagFont

	TagUl
	TagOl
	TagLi
	TagDl
	TagDt
	TagDd

	TagTable
	TagCaption
	TagTr
	TagTd
	TagTh
	TagThead
	TagTbody
	TagTfoot

	TagForm
	TagInput
	TagSelect
	TagOption
	TagOptgroup
	TagTextarea
	TagLabel
	TagFieldset
	TagLegend
	TagButton

	TagImg
	TagObject
	TagParam

	tagCount
)

var tagNames = [tagCount]string{
	TagUnsupported: "",
	TagText:        "#text",
	TagRoot:        "#root",

	TagHTML:  "html",
	TagHead:  "head",
	TagBody:  "body",
	TagTitle: "title",
	TagMeta:  "meta",
	TagLink:  "link",
	TagStyle: "style",
	TagBase:  "base",

	TagP:          "p",
	TagDiv:        "div",
	TagSpan:       "span",
	TagBr:         "br",
	TagHr:         "hr",
	TagPre:        "pre",
	TagBlockquote: "blockquote",
	TagAddress:    "address",
	TagCenter:     "center",
	TagH1:         "h1",
	TagH2:         "h2",
	TagH3:         "h3",
	TagH4:         "h4",
	TagH5:         "h5",
	TagH6:         "h6",

	TagA:       "a",
	TagB:       "b",
	TagI:       "i",
	TagU:       "u",
	TagS:       "s",
	TagStrike:  "strike",
	TagEm:      "em",
	TagStrong:  "strong",
	TagBig:     "big",
	TagSmall:   "small",
	TagSub:     "sub",
	TagSup:     "sup",
	TagTt:      "tt",
	TagCode:    "code",
	TagSamp:    "samp",
	TagKbd:     "kbd",
	TagVar:     "var",
	TagCite:    "cite",
	TagDfn:     "dfn",
	TagAbbr:    "abbr",
	TagAcronym: "acronym",
	TagQ:       "q",
	TagIns:     "ins",
	TagDel:     "del",
	TagFont:    "font",

	TagUl: "ul",
	TagOl: "ol",
	TagLi: "li",
	TagDl: "dl",
	TagDt: "dt",
	TagDd: "dd",

	TagTable:   "table",
	TagCaption: "caption",
	TagTr:      "tr",
	TagTd:      "td",
	TagTh:      "th",
	TagThead:   "thead",
	TagTbody:   "tbody",
	TagTfoot:   "tfoot",

	TagForm:     "form",
	TagInput:    "input",
	TagSelect:   "select",
	TagOption:   "option",
	TagOptgroup: "optgroup",
	TagTextarea: "textarea",
	TagLabel:    "label",
	TagFieldset: "fieldset",
	TagLegend:   "legend",
	TagButton:   "button",

	TagImg:    "img",
	TagObject: "object",
	TagParam:  "param",
}

var tagIndex = func() map[string]Tag {
	m := make(map[string]Tag, len(tagNames))
	for t := TagHTML; t < tagCount; t++ {
		m[tagNames[t]] = t
	}
	return m
}()

// LookupTag resolves tag name case-insensitively.
func LookupTag(name string) Tag {
	if t, ok := tagIndex[name]; ok {
		return t
	}
	if t, ok := tagIndex[strings.ToLower(name)]; ok {
		return t
	}
	return TagUnsupported
}

func (t Tag) String() string {
	if t >= 0 && t < tagCount {
		return tagNames[t]
	}
	return ""
}

// Empty returns true for tags which never have content.
func (t Tag) Empty() bool {
	switch t {
	case TagBr, TagImg, TagHr, TagMeta, TagLink, TagBase, TagInput, TagParam:
		return true
	}
	return false
}

// Block returns true for tags laid out as boxes of their own.
func (t Tag) Block() bool {
	switch t {
	case TagRoot, TagHTML, TagBody, TagP, TagDiv, TagPre, TagBlockquote, TagAddress, TagCenter,
		TagH1, TagH2, TagH3, TagH4, TagH5, TagH6, TagHr,
		TagUl, TagOl, TagLi, TagDl, TagDt, TagDd,
		TagTable, TagCaption, TagTr, TagTd, TagTh, TagThead, TagTbody, TagTfoot,
		TagForm, TagFieldset, TagLegend:
		return true
	}
	return false
}

// Invisible returns true for tags whose content is never rendered.
func (t Tag) Invisible() bool {
	switch t {
	case TagHead, TagTitle, TagMeta, TagLink, TagStyle, TagBase, TagParam:
		return true
	}
	return false
}
