//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-pluck/host"
	"github.com/cwbudde/algo-pluck/internal/fitcommon"
	"github.com/cwbudde/algo-pluck/preset"
)

// maxBlock matches the Web Audio render quantum.
const maxBlock = 128

var (
	engine       *host.Engine
	current      *preset.Preset
	outputBuffer []float32
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmMessage", js.FuncOf(wasmMessage))
	js.Global().Set("wasmLoadPreset", js.FuncOf(wasmLoadPreset))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM pluck module loaded")
	<-c
}

func rebuild(p *preset.Preset) error {
	e, _, err := fitcommon.NewEngine(p, func(err error) {
		println("message rejected:", err.Error())
	})
	if err != nil {
		return err
	}
	engine = e
	current = p
	return nil
}

func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	p := preset.Default()
	p.SampleRate = args[0].Int()
	if err := rebuild(p); err != nil {
		println("init failed:", err.Error())
		return nil
	}
	outputBuffer = make([]float32, maxBlock)

	println("Pluck initialized at", p.SampleRate, "Hz")
	return nil
}

// wasmMessage posts a text control message such as "freq 220" or "bang".
// It returns an error string, or null when the message was accepted.
func wasmMessage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return nil
	}
	m, err := host.ParseMessage(args[0].String())
	if err != nil {
		return err.Error()
	}
	engine.Post(m)
	return nil
}

// wasmLoadPreset applies a preset JSON string and restarts the engine.
func wasmLoadPreset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || current == nil {
		return nil
	}
	var f preset.File
	if err := json.Unmarshal([]byte(args[0].String()), &f); err != nil {
		return err.Error()
	}
	p := *current
	if err := preset.ApplyFile(&p, &f); err != nil {
		return err.Error()
	}
	// The audio context owns the sample rate.
	p.SampleRate = current.SampleRate
	if err := rebuild(&p); err != nil {
		return err.Error()
	}
	return nil
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return 0
	}
	numFrames := min(max(args[0].Int(), 0), maxBlock)
	engine.Process(outputBuffer[:numFrames])

	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
