package expand

import (
	"path/filepath"
	"strings"

	"github.com/dtig-project/dtig/internal/directive"
	"github.com/dtig-project/dtig/internal/schema"
)

var collections = map[string]schema.Collection{
	directive.PhParameters: schema.Parameters,
	directive.PhInputs:     schema.Inputs,
	directive.PhOutputs:    schema.Outputs,
}

// lookup resolves a placeholder name
func (r *run) lookup(name string, pos directive.Pos) (Value, error) {
	if v, ok, err := r.lookupLoop(name, pos); ok || err != nil {
		return v, err
	}
	if v, ok := r.lookupCollection(name); ok {
		return v, nil
	}
	if v, ok := r.lookupModel(name); ok {
		return v, nil
	}
	if v, ok, err := r.lookupConstant(name, pos); ok || err != nil {
		return v, err
	}
	return null, directive.Resolvef(pos, "unknown placeholder %s%s", directive.NamePrefix, name)
}

// lookupLoop resolves the names bound by loop frames
func (r *run) lookupLoop(name string, pos directive.Pos) (Value, bool, error) {
	switch name {
	case directive.PhIndex:
		f, ok := r.scope.loop()
		if !ok {
			return null, true, directive.Resolvef(pos, "DTIG_INDEX used outside DTIG_FOR")
		}
		return intValue(f.index), true, nil

	case directive.PhElement:
		f, ok := r.scope.loop()
		if !ok {
			return null, true, directive.Resolvef(pos, "DTIG_ELEMENT used outside DTIG_FOR")
		}
		return f.element, true, nil

	case directive.PhPropName, directive.PhPropType, directive.PhPropIndex:
		f, ok := r.scope.prop()
		if !ok {
			return null, true, directive.Resolvef(pos, "%s%s used outside a loop over sub-properties", directive.NamePrefix, name)
		}
		switch name {
		case directive.PhPropName:
			return stringValue(f.element.prop.Name), true, nil
		case directive.PhPropType:
			return stringValue(f.element.prop.Type), true, nil
		}
		return intValue(f.element.prop.Index), true, nil
	}

	isItemName := strings.HasPrefix(name, "ITEM_") && directive.IsPlaceholder(name)
	if !isItemName {
		return null, false, nil
	}

	f, ok := r.scope.item()
	if !ok {
		return null, true, directive.Resolvef(pos, "%s%s used outside a loop over items", directive.NamePrefix, name)
	}
	item := f.element.item

	switch name {
	case directive.PhItemName:
		return stringValue(item.Name), true, nil
	case directive.PhItemType:
		return stringValue(item.Type), true, nil
	case directive.PhItemNamespace:
		return stringValue(item.Namespace), true, nil
	case directive.PhItemID:
		return optional(item.ID), true, nil
	case directive.PhItemUnit:
		return optional(item.Unit), true, nil
	case directive.PhItemDescription:
		return optional(item.Description), true, nil
	case directive.PhItemDefault:
		return optional(item.Default), true, nil
	case directive.PhItemModifier:
		return optional(item.Modifier), true, nil
	case directive.PhItemIndex:
		return intValue(item.Index), true, nil
	case directive.PhItemProps:
		props, err := r.ev.table.Props(item.Type)
		if err != nil {
			return null, true, directive.WrapResolve(pos, err, "DTIG_ITEM_PROPS of item %q", item.Name)
		}
		list := make([]Value, len(props))
		for i, p := range props {
			list[i] = propValue(p)
		}
		return listValue(list), true, nil
	}

	// ITEM_PROP_<P>
	propName := strings.ToLower(strings.TrimPrefix(name, directive.PrefixItemProp))
	p, err := r.ev.table.Prop(item.Type, propName)
	if err != nil {
		return null, true, directive.WrapResolve(pos, err, "%s%s of item %q", directive.NamePrefix, name, item.Name)
	}
	return propValue(p), true, nil
}

// lookupCollection resolves PARAMETERS, INPUTS, OUTPUTS and their _LENGTH and _NAMES forms
func (r *run) lookupCollection(name string) (Value, bool) {
	base, suffix := name, ""
	for _, s := range []string{directive.SuffixLength, directive.SuffixNames} {
		if strings.HasSuffix(name, s) {
			base, suffix = strings.TrimSuffix(name, s), s
			break
		}
	}

	c, ok := collections[base]
	if !ok {
		return null, false
	}
	items := r.ev.model.Items(c)

	switch suffix {
	case directive.SuffixLength:
		return intValue(len(items)), true
	case directive.SuffixNames:
		names := make([]Value, len(items))
		for i, item := range items {
			names[i] = stringValue(item.Name)
		}
		return listValue(names), true
	}

	list := make([]Value, len(items))
	for i, item := range items {
		list[i] = itemValue(item)
	}
	return listValue(list), true
}

// lookupModel resolves model metadata
func (r *run) lookupModel(name string) (Value, bool) {
	m := r.ev.model
	switch name {
	case directive.PhName:
		return optional(m.Meta.Name), true
	case directive.PhVersion:
		return optional(m.Meta.Version), true
	case directive.PhDescription:
		return optional(m.Meta.Description), true
	case directive.PhFormalism:
		return optional(strings.ToLower(m.Meta.Formalism)), true
	case directive.PhStepSize:
		return optional(m.Meta.StepSize), true
	case directive.PhStopTime:
		return optional(m.Meta.StopTime), true
	case directive.PhLookahead:
		return optional(m.Meta.Lookahead), true
	case directive.PhAuthors:
		authors := make([]Value, len(m.Meta.Authors))
		for i, a := range m.Meta.Authors {
			authors[i] = stringValue(a)
		}
		return listValue(authors), true
	case directive.PhModelPath:
		return optional(m.Path), true
	case directive.PhDir:
		if m.Path == "" {
			return null, true
		}
		return stringValue(filepath.Dir(m.Path)), true
	case directive.PhTarget:
		return stringValue(r.ev.table.Target()), true
	}
	return null, false
}

// lookupConstant resolves TRUE, FALSE, NONE and the TYPE_, TYPE_PROP_ and FORMALISM_ families
func (r *run) lookupConstant(name string, pos directive.Pos) (Value, bool, error) {
	switch name {
	case directive.PhTrue:
		return boolValue(true), true, nil
	case directive.PhFalse:
		return boolValue(false), true, nil
	case directive.PhNone:
		return null, true, nil
	}

	switch {
	case strings.HasPrefix(name, directive.PrefixTypeProp):
		prop := strings.ToLower(strings.TrimPrefix(name, directive.PrefixTypeProp))
		if !r.ev.table.KnownProp(prop) {
			return null, true, directive.Resolvef(pos, "%s%s: no type of target %s has a property %q", directive.NamePrefix, name, r.ev.table.Target(), prop)
		}
		return stringValue(prop), true, nil

	case strings.HasPrefix(name, directive.PrefixType):
		tag := strings.ToLower(strings.TrimPrefix(name, directive.PrefixType))
		if _, err := r.ev.table.Lookup(tag); err != nil {
			return null, true, directive.WrapResolve(pos, err, "%s%s", directive.NamePrefix, name)
		}
		return stringValue(tag), true, nil

	case strings.HasPrefix(name, directive.PrefixFormalism):
		return stringValue(strings.ToLower(strings.TrimPrefix(name, directive.PrefixFormalism))), true, nil
	}
	return null, false, nil
}
