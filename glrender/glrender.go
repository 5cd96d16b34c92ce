// Package glrender draws a fractal program over the whole viewport with OpenGL.
// All methods must be called with the owning GL context current.
package glrender

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/programs"
)

// A single triangle covering the [-1, 1] square.
var vertices = []float32{
	-3, -2,
	0, 3,
	3, -2,
}

type Renderer struct {
	Logger *slog.Logger

	vao          uint32
	vbo          uint32
	program      uint32
	vertexAttrib uint32
	locations    map[string]int32
	loaded       string
}

func New(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{Logger: logger}
}

// Init loads the GL function pointers and uploads the vertex data. GL debug
// output is logged when debug is set.
func (r *Renderer) Init(debug bool) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl.Init: %w", err)
	}
	r.Logger.Info("OpenGL initialised", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	if debug {
		gl.DebugMessageCallback(r.debugMessage, nil)
		gl.Enable(gl.DEBUG_OUTPUT)
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	return nil
}

// Loaded returns the name of the current program.
func (r *Renderer) Loaded() string {
	return r.loaded
}

// Load compiles and links p, replacing the current program. On failure the
// previous program stays in use.
func (r *Renderer) Load(p programs.Program) error {
	vertexShader, err := compileShader(p.VertexShader+"\x00", gl.VERTEX_SHADER)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(p.FragmentShader+"\x00", gl.FRAGMENT_SHADER)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.BindFragDataLocation(program, 0, gl.Str("outputColor\x00"))
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetProgramInfoLog(program, l, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return fmt.Errorf("failed to link %s: %v", p.Name, log)
	}

	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	r.program = program
	r.loaded = p.Name
	gl.UseProgram(r.program)

	r.locations = make(map[string]int32)
	for _, name := range uniformNames(reflect.TypeOf(programs.Uniforms{})) {
		r.locations[name] = gl.GetUniformLocation(r.program, gl.Str(name+"\x00"))
	}

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	r.vertexAttrib = uint32(gl.GetAttribLocation(r.program, gl.Str("vert\x00")))
	gl.EnableVertexAttribArray(r.vertexAttrib)
	gl.VertexAttribPointerWithOffset(r.vertexAttrib, 2, gl.FLOAT, false, 2*4, 0)

	r.Logger.Info("program loaded", "program", p.Name)
	return nil
}

func (r *Renderer) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Draw renders one frame with u.
func (r *Renderer) Draw(u programs.Uniforms) {
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if r.program == 0 {
		return
	}
	gl.UseProgram(r.program)
	r.loadUniforms(&u)
	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}

func (r *Renderer) Delete() {
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteVertexArrays(1, &r.vao)
}

func uniformNames(t reflect.Type) []string {
	var names []string
	for i := 0; i < t.NumField(); i++ {
		if name := t.Field(i).Tag.Get("uniform"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// loadUniforms uploads every tagged field of u to the uniform it names.
func (r *Renderer) loadUniforms(u *programs.Uniforms) {
	v := reflect.ValueOf(u).Elem()
	for i := 0; i < v.NumField(); i++ {
		name := v.Type().Field(i).Tag.Get("uniform")
		loc, ok := r.locations[name]
		if !ok || loc < 0 {
			continue
		}

		f := v.Field(i)
		ptr := f.Addr().UnsafePointer()
		count := int32(1)

	SwitchElem:
		switch f.Type() {
		case reflect.TypeOf(mgl32.Vec2{}):
			gl.Uniform2fv(loc, count, (*float32)(ptr))
			continue
		case reflect.TypeOf(mgl64.Vec2{}):
			gl.Uniform2dv(loc, count, (*float64)(ptr))
			continue
		case reflect.TypeOf(mgl64.Vec3{}):
			gl.Uniform3dv(loc, count, (*float64)(ptr))
			continue
		case reflect.TypeOf(int32(0)):
			gl.Uniform1iv(loc, count, (*int32)(ptr))
			continue
		case reflect.TypeOf(float32(0)):
			gl.Uniform1fv(loc, count, (*float32)(ptr))
			continue
		case reflect.TypeOf(float64(0)):
			gl.Uniform1dv(loc, count, (*float64)(ptr))
			continue
		}

		if f.Kind() == reflect.Array {
			count = int32(f.Len())
			f = f.Index(0)
			goto SwitchElem
		}

		r.Logger.Warn("unsupported uniform type", "uniform", name, "type", f.Type())
	}
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	defer runtime.KeepAlive(source)
	cstring, free := gl.Strs(source)
	defer free()

	shader := gl.CreateShader(shaderType)
	gl.ShaderSource(shader, 1, cstring, nil)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetShaderInfoLog(shader, l, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("shader failed to compile: %v", strings.TrimRight(log, "\x00"))
	}

	return shader, nil
}

func (r *Renderer) debugMessage(
	source,
	gltype,
	id,
	severity uint32,
	length int32,
	message string,
	user unsafe.Pointer,
) {
	level := slog.LevelDebug
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		level = slog.LevelError
	case gl.DEBUG_SEVERITY_MEDIUM:
		level = slog.LevelWarn
	case gl.DEBUG_SEVERITY_LOW:
		level = slog.LevelInfo
	}

	r.Logger.Log(context.Background(), level, "gl debug",
		"source", sourceName(source),
		"type", typeName(gltype),
		"id", id,
		"message", message,
	)
}

func sourceName(source uint32) string {
	switch source {
	case gl.DEBUG_SOURCE_API:
		return "api"
	case gl.DEBUG_SOURCE_APPLICATION:
		return "application"
	case gl.DEBUG_SOURCE_SHADER_COMPILER:
		return "shaderCompiler"
	case gl.DEBUG_SOURCE_THIRD_PARTY:
		return "thirdParty"
	case gl.DEBUG_SOURCE_WINDOW_SYSTEM:
		return "windowSystem"
	}
	return "other"
}

func typeName(gltype uint32) string {
	switch gltype {
	case gl.DEBUG_TYPE_ERROR:
		return "error"
	case gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR:
		return "deprecatedBehavior"
	case gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:
		return "undefinedBehavior"
	case gl.DEBUG_TYPE_PERFORMANCE:
		return "performance"
	case gl.DEBUG_TYPE_PORTABILITY:
		return "portability"
	case gl.DEBUG_TYPE_MARKER:
		return "marker"
	case gl.DEBUG_TYPE_PUSH_GROUP:
		return "pushGroup"
	case gl.DEBUG_TYPE_POP_GROUP:
		return "popGroup"
	}
	return "other"
}
