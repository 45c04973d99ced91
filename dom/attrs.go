package dom

import "strings"

// Attr identifies attribute kind.
type Attr int

const (
	AttrUnsupported Attr = iota

	AttrClass
	AttrID
	AttrStyle
	AttrTitle
	AttrLang
	AttrXMLLang
	AttrDir

	AttrHref
	AttrSrc
	AttrAlt
	AttrName
	AttrContent
	AttrHTTPEquiv
	AttrScheme
	AttrRel
	AttrRev
	AttrType
	AttrMedia
	AttrCharset
	AttrHreflang
	AttrXMLNS
	AttrVersion

	AttrWidth
	AttrHeight
	AttrAlign
	AttrValign
	AttrBorder
	AttrHspace
	AttrVspace
	AttrColor
	AttrFace
	AttrSize
	AttrBgcolor
	AttrText
	AttrLinkColor
	AttrVlink
	AttrAlink

	AttrAccesskey
	AttrTabindex
	AttrValue
	AttrMaxlength
	AttrChecked
	AttrSelected
	AttrDisabled
	AttrReadonly
	AttrMultiple
	AttrRows
	AttrCols
	AttrAction
	AttrMethod
	AttrEnctype
	AttrLabel
	AttrFor
	AttrStart

	AttrColspan
	AttrRowspan
	AttrCellpadding
	AttrCellspacing
	AttrSummary

	AttrCite
	AttrDatetime
	AttrData
	AttrValuetype

	attrCount
)

var attrNames = [attrCount]string{
	AttrUnsupported: "",

	AttrClass:   "class",
	AttrID:      "id",
	AttrStyle:   "style",
	AttrTitle:   "title",
	AttrLang:    "lang",
	AttrXMLLang: "xml:lang",
	AttrDir:     "dir",

	AttrHref:      "href",
	AttrSrc:       "src",
	AttrAlt:       "alt",
	AttrName:      "name",
	AttrContent:   "content",
	AttrHTTPEquiv: "http-equiv",
	AttrScheme:    "scheme",
	AttrRel:       "rel",
	AttrRev:       "rev",
	AttrType:      "type",
	AttrMedia:     "media",
	AttrCharset:   "charset",
	AttrHreflang:  "hreflang",
	AttrXMLNS:     "xmlns",
	AttrVersion:   "version",

	AttrWidth:     "width",
	AttrHeight:    "height",
	AttrAlign:     "align",
	AttrValign:    "valign",
	AttrBorder:    "border",
	AttrHspace:    "hspace",
	AttrVspace:    "vspace",
	AttrColor:     "color",
	AttrFace:      "face",
	AttrSize:      "size",
	AttrBgcolor:   "bgcolor",
	AttrText:      "text",
	AttrLinkColor: "link",
	AttrVlink:     "vlink",
	AttrAlink:     "alink",

	AttrAccesskey: "accesskey",
	AttrTabindex:  "tabindex",
	AttrValue:     "value",
	AttrMaxlength: "maxlength",
	AttrChecked:   "checked",
	AttrSelected:  "selected",
	AttrDisabled:  "disabled",
	AttrReadonly:  "readonly",
	AttrMultiple:  "multiple",
	AttrRows:      "rows",
	AttrCols:      "cols",
	AttrAction:    "action",
	AttrMethod:    "method",
	AttrEnctype:   "enctype",
	AttrLabel:     "label",
	AttrFor:       "for",
	AttrStart:     "start",

	AttrColspan:     "colspan",
	AttrRowspan:     "rowspan",
	AttrCellpadding: "cellpadding",
	AttrCellspacing: "cellspacing",
	AttrSummary:     "summary",

	AttrCite:      "cite",
	AttrDatetime:  "datetime",
	AttrData:      "data",
	AttrValuetype: "valuetype",
}

var attrIndex = func() map[string]Attr {
	m := make(map[string]Attr, len(attrNames))
	for a := AttrClass; a < attrCount; a++ {
		m[attrNames[a]] = a
	}
	return m
}()

// LookupAttr resolves attribute name case-insensitively.
func LookupAttr(name string) Attr {
	if a, ok := attrIndex[name]; ok {
		return a
	}
	if a, ok := attrIndex[strings.ToLower(name)]; ok {
		return a
	}
	return AttrUnsupported
}

func (a Attr) String() string {
	if a >= 0 && a < attrCount {
		return attrNames[a]
	}
	return ""
}

type valueKind int

const (
	kindText valueKind = iota
	kindInt
	kindLength
	kindColor
	kindURI
	kindLang
	kindEnum
	kindBool
	kindChar
	kindTokens
)

type attrSpec struct {
	kind   valueKind
	values []string
}

var attrSpecs = map[Attr]attrSpec{
	AttrClass:   {kind: kindTokens},
	AttrID:      {kind: kindTokens},
	AttrLang:    {kind: kindLang},
	AttrXMLLang: {kind: kindLang},
	AttrDir:     {kind: kindEnum, values: []string{"ltr", "rtl"}},

	AttrHref:     {kind: kindURI},
	AttrSrc:      {kind: kindURI},
	AttrCite:     {kind: kindURI},
	AttrAction:   {kind: kindURI},
	AttrData:     {kind: kindURI},
	AttrXMLNS:    {kind: kindURI},
	AttrHreflang: {kind: kindLang},

	AttrWidth:       {kind: kindLength},
	AttrHeight:      {kind: kindLength},
	AttrBorder:      {kind: kindInt},
	AttrHspace:      {kind: kindInt},
	AttrVspace:      {kind: kindInt},
	AttrColor:       {kind: kindColor},
	AttrBgcolor:     {kind: kindColor},
	AttrText:        {kind: kindColor},
	AttrLinkColor:   {kind: kindColor},
	AttrVlink:       {kind: kindColor},
	AttrAlink:       {kind: kindColor},
	AttrAlign:       {kind: kindEnum, values: []string{"left", "center", "right", "justify", "top", "middle", "bottom"}},
	AttrValign:      {kind: kindEnum, values: []string{"top", "middle", "bottom", "baseline"}},
	AttrSize:        {kind: kindText},
	AttrCellpadding: {kind: kindLength},
	AttrCellspacing: {kind: kindLength},
	AttrColspan:     {kind: kindInt},
	AttrRowspan:     {kind: kindInt},

	AttrAccesskey: {kind: kindChar},
	AttrTabindex:  {kind: kindInt},
	AttrMaxlength: {kind: kindInt},
	AttrRows:      {kind: kindInt},
	AttrCols:      {kind: kindInt},
	AttrStart:     {kind: kindInt},
	AttrChecked:   {kind: kindBool},
	AttrSelected:  {kind: kindBool},
	AttrDisabled:  {kind: kindBool},
	AttrReadonly:  {kind: kindBool},
	AttrMultiple:  {kind: kindBool},
	AttrMethod:    {kind: kindEnum, values: []string{"get", "post"}},
	AttrValuetype: {kind: kindEnum, values: []string{"data", "ref", "object"}},
}

// inputTypes is used for <input type> only, other tags accept any MIME type.
var inputTypes = []string{"text", "password", "checkbox", "radio", "submit", "reset", "hidden", "image", "button", "file"}

var (
	coreAttrs = []Attr{AttrClass, AttrID, AttrStyle, AttrTitle}
	i18nAttrs = []Attr{AttrLang, AttrXMLLang, AttrDir}
)

// tagAttrs lists attributes legal for tag in addition to core and i18n ones.
var tagAttrs = map[Tag][]Attr{
	TagA:          {AttrHref, AttrName, AttrRel, AttrRev, AttrType, AttrCharset, AttrHreflang, AttrAccesskey, AttrTabindex},
	TagImg:        {AttrSrc, AttrAlt, AttrWidth, AttrHeight, AttrAlign, AttrBorder, AttrHspace, AttrVspace},
	TagObject:     {AttrData, AttrType, AttrWidth, AttrHeight, AttrName, AttrTabindex},
	TagP:          {AttrAlign},
	TagDiv:        {AttrAlign},
	TagH1:         {AttrAlign},
	TagH2:         {AttrAlign},
	TagH3:         {AttrAlign},
	TagH4:         {AttrAlign},
	TagH5:         {AttrAlign},
	TagH6:         {AttrAlign},
	TagHr:         {AttrAlign, AttrWidth, AttrSize},
	TagBody:       {AttrBgcolor, AttrText, AttrLinkColor, AttrVlink, AttrAlink},
	TagFont:       {AttrColor, AttrFace, AttrSize},
	TagOl:         {AttrStart, AttrType},
	TagUl:         {AttrType},
	TagLi:         {AttrValue, AttrType},
	TagBlockquote: {AttrCite},
	TagQ:          {AttrCite},
	TagIns:        {AttrCite, AttrDatetime},
	TagDel:        {AttrCite, AttrDatetime},
	TagTable:      {AttrWidth, AttrBorder, AttrCellpadding, AttrCellspacing, AttrSummary, AttrAlign, AttrBgcolor},
	TagCaption:    {AttrAlign},
	TagTr:         {AttrAlign, AttrValign, AttrBgcolor},
	TagTd:         {AttrAlign, AttrValign, AttrColspan, AttrRowspan, AttrWidth, AttrHeight, AttrBgcolor},
	TagTh:         {AttrAlign, AttrValign, AttrColspan, AttrRowspan, AttrWidth, AttrHeight, AttrBgcolor},
	TagThead:      {AttrAlign, AttrValign},
	TagTbody:      {AttrAlign, AttrValign},
	TagTfoot:      {AttrAlign, AttrValign},
	TagForm:       {AttrAction, AttrMethod, AttrEnctype},
	TagInput:      {AttrType, AttrName, AttrValue, AttrSize, AttrMaxlength, AttrChecked, AttrDisabled, AttrReadonly, AttrSrc, AttrAlt, AttrAccesskey, AttrTabindex},
	TagSelect:     {AttrName, AttrSize, AttrMultiple, AttrDisabled, AttrTabindex},
	TagOption:     {AttrValue, AttrSelected, AttrDisabled, AttrLabel},
	TagOptgroup:   {AttrLabel, AttrDisabled},
	TagTextarea:   {AttrName, AttrRows, AttrCols, AttrDisabled, AttrReadonly, AttrAccesskey, AttrTabindex},
	TagLabel:      {AttrFor, AttrAccesskey},
	TagLegend:     {AttrAccesskey},
	TagButton:     {AttrName, AttrValue, AttrType, AttrDisabled, AttrAccesskey, AttrTabindex},
}

// restricted tags do not accept core and i18n attributes, only listed ones.
var restricted = map[Tag][]Attr{
	TagRoot:  {},
	TagText:  {},
	TagHTML:  {AttrXMLNS, AttrVersion, AttrLang, AttrXMLLang, AttrDir, AttrID},
	TagHead:  {AttrLang, AttrXMLLang, AttrDir, AttrID},
	TagTitle: {AttrLang, AttrXMLLang, AttrDir, AttrID},
	TagMeta:  {AttrContent, AttrHTTPEquiv, AttrName, AttrScheme, AttrLang, AttrXMLLang, AttrDir, AttrID},
	TagBase:  {AttrHref, AttrID},
	TagStyle: {AttrType, AttrMedia, AttrTitle, AttrLang, AttrXMLLang, AttrDir, AttrID},
	TagLink:  {AttrClass, AttrID, AttrTitle, AttrStyle, AttrLang, AttrXMLLang, AttrDir, AttrHref, AttrRel, AttrRev, AttrType, AttrMedia, AttrCharset, AttrHreflang},
	TagParam: {AttrID, AttrName, AttrValue, AttrValuetype, AttrType},
	TagBr:    {AttrClass, AttrID, AttrStyle, AttrTitle},
}

// Allowed returns true when attribute is legal for tag.
func (t Tag) Allowed(a Attr) bool {
	if a == AttrUnsupported {
		return false
	}
	if list, ok := restricted[t]; ok {
		for _, v := range list {
			if v == a {
				return true
			}
		}
		return false
	}
	for _, list := range [][]Attr{coreAttrs, i18nAttrs, tagAttrs[t]} {
		for _, v := range list {
			if v == a {
				return true
			}
		}
	}
	return false
}
