package sandbox

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DOM provides a lightweight document proxy for sandboxed JavaScript
type DOM struct {
	root    *Element
	body    *Element
	changes []DOMChange
	mu      sync.RWMutex
}

// Element represents a DOM element
type Element struct {
	TagName     string
	ID          string
	ClassName   string
	TextContent string
	Attributes  map[string]string
	Children    []*Element
	Parent      *Element
	Listeners   map[string]int
}

// NewDOM creates an empty document with a body element
func NewDOM() *DOM {
	root := newElement("document")
	body := newElement("body")
	root.AddElement(body)
	return &DOM{root: root, body: body}
}

// NewDOMFromDocument builds the element tree of a parsed document's body.
// Script and style elements are skipped: they are not part of the page
// content scripts interact with.
func NewDOMFromDocument(doc *goquery.Document) *DOM {
	d := NewDOM()
	if body := doc.Find("body").First(); body.Length() > 0 {
		for c := body.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
			d.build(d.body, c)
		}
	}
	return d
}

func (d *DOM) build(parent *Element, n *html.Node) {
	if n.Type != html.ElementNode || n.Data == "script" || n.Data == "style" {
		return
	}

	elem := newElement(n.Data)
	for _, attr := range n.Attr {
		elem.Attributes[attr.Key] = attr.Val
		switch attr.Key {
		case "id":
			elem.ID = attr.Val
		case "class":
			elem.ClassName = attr.Val
		}
	}
	elem.TextContent = nodeText(n)
	parent.AddElement(elem)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.build(elem, c)
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func newElement(tag string) *Element {
	return &Element{
		TagName:    strings.ToLower(tag),
		Attributes: make(map[string]string),
		Listeners:  make(map[string]int),
	}
}

// Body returns the body element
func (d *DOM) Body() *Element {
	return d.body
}

// Query finds elements by a simple selector: #id, .class or tag
func (d *DOM) Query(selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	selector = strings.TrimSpace(selector)
	switch {
	case selector == "", selector == "#", selector == ".":
		return nil
	case strings.HasPrefix(selector, "#"):
		if elem := d.findByID(d.root, selector[1:]); elem != nil {
			return []*Element{elem}
		}
		return nil
	case strings.HasPrefix(selector, "."):
		return d.findByClass(d.root, selector[1:])
	default:
		return d.findByTag(d.root, selector)
	}
}

// GetChanges returns accumulated DOM changes
func (d *DOM) GetChanges() []DOMChange {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]DOMChange{}, d.changes...)
}

// RecordChange adds a DOM change
func (d *DOM) RecordChange(change DOMChange) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes = append(d.changes, change)
}

// Selector returns a short description of the element used in change records
func (e *Element) Selector() string {
	switch {
	case e.ID != "":
		return "#" + e.ID
	case e.ClassName != "":
		return e.TagName + "." + strings.Fields(e.ClassName)[0]
	default:
		return e.TagName
	}
}

// GetAttribute retrieves attribute value
func (e *Element) GetAttribute(name string) string {
	return e.Attributes[name]
}

// SetAttribute sets attribute value, keeping id and class in sync
func (e *Element) SetAttribute(name, value string) {
	e.Attributes[name] = value
	switch name {
	case "id":
		e.ID = value
	case "class":
		e.ClassName = value
	}
}

// SetText replaces the element's children with text
func (e *Element) SetText(text string) {
	for _, child := range e.Children {
		child.Parent = nil
	}
	e.Children = nil
	e.TextContent = text
}

// AddElement adds a child element
func (e *Element) AddElement(child *Element) {
	if child.Parent != nil {
		child.Remove()
	}
	child.Parent = e
	e.Children = append(e.Children, child)
}

// Remove removes element from parent
func (e *Element) Remove() {
	if e.Parent == nil {
		return
	}
	children := e.Parent.Children[:0]
	for _, child := range e.Parent.Children {
		if child != e {
			children = append(children, child)
		}
	}
	e.Parent.Children = children
	e.Parent = nil
}

func (d *DOM) findByID(elem *Element, id string) *Element {
	if elem.ID == id {
		return elem
	}
	for _, child := range elem.Children {
		if found := d.findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func (d *DOM) findByClass(elem *Element, class string) []*Element {
	var result []*Element
	for _, c := range strings.Fields(elem.ClassName) {
		if c == class {
			result = append(result, elem)
			break
		}
	}
	for _, child := range elem.Children {
		result = append(result, d.findByClass(child, class)...)
	}
	return result
}

func (d *DOM) findByTag(elem *Element, tag string) []*Element {
	var result []*Element
	if tag == "*" || strings.EqualFold(elem.TagName, tag) {
		if elem != d.root {
			result = append(result, elem)
		}
	}
	for _, child := range elem.Children {
		result = append(result, d.findByTag(child, tag)...)
	}
	return result
}
