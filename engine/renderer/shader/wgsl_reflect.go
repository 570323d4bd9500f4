package shader

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// instanceStructSuffix marks a vertex input struct as per-instance data.
const instanceStructSuffix = "Instance"

var (
	structRe     = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	memberRe     = regexp.MustCompile(`^((?:@\w+(?:\([^)]*\))?\s*)*)(\w+)\s*:\s*(.+)$`)
	locationRe   = regexp.MustCompile(`@location\((\d+)\)`)
	vertexFnRe   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentFnRe = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
	vectorRe     = regexp.MustCompile(`^vec([234])(?:<([iuf]32)>|([iuf]))$`)
	matrixRe     = regexp.MustCompile(`^mat([234])x([234])(?:<f32>|f)$`)

	// @group(0) @binding(0) var<uniform> u: SpriteUniforms;
	bindingRe = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

var vertexFormats = map[string][5]wgpu.VertexFormat{
	"f32": {1: wgpu.VertexFormatFloat32, 2: wgpu.VertexFormatFloat32x2, 3: wgpu.VertexFormatFloat32x3, 4: wgpu.VertexFormatFloat32x4},
	"i32": {1: wgpu.VertexFormatSint32, 2: wgpu.VertexFormatSint32x2, 3: wgpu.VertexFormatSint32x3, 4: wgpu.VertexFormatSint32x4},
	"u32": {1: wgpu.VertexFormatUint32, 2: wgpu.VertexFormatUint32x2, 3: wgpu.VertexFormatUint32x3, 4: wgpu.VertexFormatUint32x4},
}

type member struct {
	name     string
	typ      string
	location int // -1 when the member has no @location
	builtin  bool
}

type wgslStruct struct {
	name    string
	members []member
}

// layout is the host-shareable size and alignment of a WGSL type.
type layout struct {
	size  uint64
	align uint64
}

// module is the reflected, comment-free view of one WGSL source.
type module struct {
	source   string
	structs  []wgslStruct
	byName   map[string]wgslStruct
	layouts  map[string]layout
	visiting map[string]bool
}

func reflectModule(source string) *module {
	m := &module{
		source:   stripComments(source),
		byName:   make(map[string]wgslStruct),
		layouts:  make(map[string]layout),
		visiting: make(map[string]bool),
	}
	for _, match := range structRe.FindAllStringSubmatch(m.source, -1) {
		s := wgslStruct{name: match[1], members: parseMembers(match[2])}
		m.structs = append(m.structs, s)
		m.byName[s.name] = s
	}
	return m
}

func parseMembers(body string) []member {
	var members []member
	for _, part := range splitTopLevel(body) {
		fm := memberRe.FindStringSubmatch(strings.TrimSpace(part))
		if fm == nil {
			continue
		}
		mb := member{name: fm[2], typ: strings.TrimSpace(fm[3]), location: -1}
		attrs := fm[1]
		mb.builtin = strings.Contains(attrs, "@builtin")
		if loc := locationRe.FindStringSubmatch(attrs); loc != nil {
			mb.location, _ = strconv.Atoi(loc[1])
		}
		members = append(members, mb)
	}
	return members
}

// splitTopLevel splits on commas outside angle brackets so array<T, N> stays whole.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// stripComments drops line comments and nested block comments.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	depth := 0
	for i := 0; i < len(src); i++ {
		switch {
		case depth == 0 && strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(src[i:], "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(src[i:], "*/"):
			depth--
			i++
		case depth > 0:
		default:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

func roundUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

// vectorShape returns the component type and count of a scalar or vector type.
func vectorShape(typ string) (string, int, bool) {
	switch typ {
	case "f32", "i32", "u32":
		return typ, 1, true
	}
	m := vectorRe.FindStringSubmatch(typ)
	if m == nil {
		return "", 0, false
	}
	n, _ := strconv.Atoi(m[1])
	if m[2] != "" {
		return m[2], n, true
	}
	return m[3] + "32", n, true
}

// typeLayout resolves a type's layout. A runtime-sized array counts as one element,
// which is the smallest buffer it may be bound to.
func (m *module) typeLayout(typ string) (layout, bool) {
	typ = strings.TrimSpace(typ)
	if typ == "bool" {
		return layout{4, 4}, true
	}
	if _, n, ok := vectorShape(typ); ok {
		switch n {
		case 1:
			return layout{4, 4}, true
		case 2:
			return layout{8, 8}, true
		default:
			return layout{uint64(4 * n), 16}, true
		}
	}
	if mm := matrixRe.FindStringSubmatch(typ); mm != nil {
		cols, _ := strconv.Atoi(mm[1])
		col, _ := m.typeLayout("vec" + mm[2] + "f")
		return layout{uint64(cols) * roundUp(col.align, col.size), col.align}, true
	}
	if inner, ok := strings.CutPrefix(typ, "atomic<"); ok {
		return m.typeLayout(strings.TrimSuffix(inner, ">"))
	}
	if inner, ok := strings.CutPrefix(typ, "array<"); ok {
		return m.arrayLayout(strings.TrimSuffix(inner, ">"))
	}
	return m.structLayout(typ)
}

func (m *module) arrayLayout(inner string) (layout, bool) {
	parts := splitTopLevel(inner)
	elem, ok := m.typeLayout(parts[0])
	if !ok {
		return layout{}, false
	}
	stride := roundUp(elem.align, elem.size)
	count := uint64(1)
	if len(parts) == 2 {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return layout{}, false
		}
		count = n
	}
	return layout{count * stride, elem.align}, true
}

func (m *module) structLayout(name string) (layout, bool) {
	if l, ok := m.layouts[name]; ok {
		return l, true
	}
	s, ok := m.byName[name]
	if !ok || m.visiting[name] {
		return layout{}, false
	}
	m.visiting[name] = true
	defer delete(m.visiting, name)

	var offset uint64
	align := uint64(1)
	for _, mb := range s.members {
		if mb.builtin {
			continue
		}
		l, ok := m.typeLayout(mb.typ)
		if !ok {
			return layout{}, false
		}
		offset = roundUp(l.align, offset) + l.size
		align = max(align, l.align)
	}
	l := layout{roundUp(align, offset), align}
	m.layouts[name] = l
	return l, true
}

// parseVertexLayouts returns one buffer layout per vertex input struct, in source order.
// A vertex input struct has @location members and no @builtin member. Structs named
// with the Instance suffix step per instance. Structs with a member type that has no
// vertex format are skipped.
func parseVertexLayouts(source string) []wgpu.VertexBufferLayout {
	var result []wgpu.VertexBufferLayout
	for _, s := range reflectModule(source).structs {
		if l, ok := vertexLayout(s); ok {
			result = append(result, l)
		}
	}
	return result
}

func vertexLayout(s wgslStruct) (wgpu.VertexBufferLayout, bool) {
	var (
		attrs  []wgpu.VertexAttribute
		offset uint64
	)
	for _, mb := range s.members {
		if mb.builtin {
			return wgpu.VertexBufferLayout{}, false
		}
		kind, n, ok := vectorShape(mb.typ)
		if !ok || mb.location < 0 {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         vertexFormats[kind][n],
			Offset:         offset,
			ShaderLocation: uint32(mb.location),
		})
		offset += uint64(4 * n)
	}
	if len(attrs) == 0 {
		return wgpu.VertexBufferLayout{}, false
	}

	step := wgpu.VertexStepModeVertex
	if strings.HasSuffix(s.name, instanceStructSuffix) {
		step = wgpu.VertexStepModeInstance
	}
	return wgpu.VertexBufferLayout{ArrayStride: offset, StepMode: step, Attributes: attrs}, true
}

// parseBindGroupLayouts collects buffer bindings by group, sorted by binding index,
// all visible to the given stage. MinBindingSize is set from the bound type when it
// resolves. Texture and sampler bindings are not reflected.
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layouts keyed by group index
//   - map[int]map[int]string: variable names keyed by group then binding
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	m := reflectModule(source)
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, match := range bindingRe.FindAllStringSubmatch(m.source, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		bufType := bufferBindingType(strings.TrimSpace(match[3]))
		if bufType == wgpu.BufferBindingTypeUndefined {
			continue
		}

		e := wgpu.BindGroupLayoutEntry{Binding: uint32(binding), Visibility: visibility}
		e.Buffer.Type = bufType
		if l, ok := m.typeLayout(match[5]); ok {
			e.Buffer.MinBindingSize = l.size
		}
		entries[group] = append(entries[group], e)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = match[4]
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, es := range entries {
		slices.SortFunc(es, func(a, b wgpu.BindGroupLayoutEntry) int { return cmp.Compare(a.Binding, b.Binding) })
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: es}
	}
	return result, names
}

func bufferBindingType(addressSpace string) wgpu.BufferBindingType {
	switch {
	case addressSpace == "uniform":
		return wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage") && strings.Contains(addressSpace, "read_write"):
		return wgpu.BufferBindingTypeStorage
	case strings.HasPrefix(addressSpace, "storage"):
		return wgpu.BufferBindingTypeReadOnlyStorage
	}
	return wgpu.BufferBindingTypeUndefined
}

// parseEntryPoint returns the name of the first entry point for the stage, or "".
func parseEntryPoint(source string, shaderType ShaderType) string {
	re := vertexFnRe
	switch shaderType {
	case ShaderTypeVertex:
	case ShaderTypeFragment:
		re = fragmentFnRe
	default:
		return ""
	}
	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}
