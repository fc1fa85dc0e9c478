package sandbox

import (
	"errors"
	"strings"

	"github.com/dop251/goja"
)

// injectDOM exposes dom to scripts as the global document object
func (r *Runtime) injectDOM(dom *DOM) error {
	r.dom = dom
	document := r.vm.NewObject()

	methods := map[string]func(goja.FunctionCall) goja.Value{
		"querySelector":          r.queryFirst(func(s string) string { return s }),
		"getElementById":         r.queryFirst(func(s string) string { return "#" + s }),
		"querySelectorAll":       r.queryAll(func(s string) string { return s }),
		"getElementsByClassName": r.queryAll(func(s string) string { return "." + s }),
		"getElementsByTagName":   r.queryAll(func(s string) string { return s }),
		"createElement":          r.createElement,
		"addEventListener":       r.addListener,
	}
	for name, fn := range methods {
		if err := document.Set(name, fn); err != nil {
			return err
		}
	}

	body := r.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return r.proxy(dom.Body())
	})
	if err := document.DefineAccessorProperty("body", body, nil, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return err
	}

	return r.vm.Set("document", document)
}

func (r *Runtime) queryFirst(selector func(string) string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		elements := r.dom.Query(selector(call.Argument(0).String()))
		if len(elements) == 0 {
			return goja.Null()
		}
		return r.proxy(elements[0])
	}
}

func (r *Runtime) queryAll(selector func(string) string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		elements := r.dom.Query(selector(call.Argument(0).String()))
		items := make([]any, len(elements))
		for i, elem := range elements {
			items[i] = r.proxy(elem)
		}
		return r.vm.NewArray(items...)
	}
}

func (r *Runtime) createElement(call goja.FunctionCall) goja.Value {
	return r.proxy(newElement(call.Argument(0).String()))
}

// proxy returns the script-facing object for elem. The same element always
// maps to the same object so identity comparisons hold in page code.
func (r *Runtime) proxy(elem *Element) *goja.Object {
	if obj, ok := r.proxies[elem]; ok {
		return obj
	}

	obj := r.vm.NewObject()
	r.proxies[elem] = obj

	_ = obj.Set("tagName", strings.ToUpper(elem.TagName))
	r.accessor(obj, "textContent",
		func() string { return elem.TextContent },
		func(v string) {
			elem.SetText(v)
			r.dom.RecordChange(DOMChange{Type: "set_text", Selector: elem.Selector(), Value: v})
		})
	r.accessor(obj, "innerText",
		func() string { return elem.TextContent },
		func(v string) {
			elem.SetText(v)
			r.dom.RecordChange(DOMChange{Type: "set_text", Selector: elem.Selector(), Value: v})
		})
	r.accessor(obj, "id",
		func() string { return elem.ID },
		func(v string) { r.setAttribute(elem, "id", v) })
	r.accessor(obj, "className",
		func() string { return elem.ClassName },
		func(v string) { r.setAttribute(elem, "class", v) })

	_ = obj.Set("style", r.vm.NewObject())
	_ = obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if v, ok := elem.Attributes[name]; ok {
			return r.vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		r.setAttribute(elem, call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	_ = obj.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child := r.element(call.Argument(0))
		if child == nil {
			panic(r.vm.NewTypeError("appendChild: argument is not an element"))
		}
		elem.AddElement(child)
		r.dom.RecordChange(DOMChange{Type: "append_child", Selector: elem.Selector(), Value: child.Selector()})
		return call.Argument(0)
	})
	_ = obj.Set("remove", func(goja.FunctionCall) goja.Value {
		elem.Remove()
		return goja.Undefined()
	})
	_ = obj.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		event := call.Argument(0).String()
		if fn, ok := goja.AssertFunction(call.Argument(1)); ok {
			elem.Listeners[event]++
			r.handlers(elem)[event] = append(r.handlers(elem)[event], fn)
			r.dom.RecordChange(DOMChange{Type: "add_listener", Selector: elem.Selector(), Property: event})
		}
		return goja.Undefined()
	})
	_ = obj.Set("click", func(goja.FunctionCall) goja.Value {
		r.fire(elem, obj, "click")
		return goja.Undefined()
	})

	return obj
}

func (r *Runtime) accessor(obj *goja.Object, name string, get func() string, set func(string)) {
	getter := r.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return r.vm.ToValue(get())
	})
	setter := r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		set(call.Argument(0).String())
		return goja.Undefined()
	})
	_ = obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

func (r *Runtime) setAttribute(elem *Element, name, value string) {
	elem.SetAttribute(name, value)
	r.dom.RecordChange(DOMChange{Type: "set_attribute", Selector: elem.Selector(), Property: name, Value: value})
}

// element maps a proxy object back to its element
func (r *Runtime) element(v goja.Value) *Element {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	for elem, p := range r.proxies {
		if p == obj {
			return elem
		}
	}
	return nil
}

func (r *Runtime) handlers(elem *Element) map[string][]goja.Callable {
	if r.elementListeners == nil {
		r.elementListeners = make(map[*Element]map[string][]goja.Callable)
	}
	h, ok := r.elementListeners[elem]
	if !ok {
		h = make(map[string][]goja.Callable)
		r.elementListeners[elem] = h
	}
	return h
}

// fire runs elem's listeners synchronously the way element.click() does.
// Exceptions thrown by a listener are reported and do not reach the caller.
func (r *Runtime) fire(elem *Element, target *goja.Object, event string) {
	for _, fn := range append([]goja.Callable{}, r.handlers(elem)[event]...) {
		evt := r.vm.NewObject()
		_ = evt.Set("type", event)
		_ = evt.Set("target", target)
		if _, err := fn(target, evt); err != nil {
			var ex *goja.Exception
			if !errors.As(err, &ex) {
				// interrupted: the flag stays set and stops the caller too
				return
			}
			r.reportUncaught(ex)
		}
	}
}
