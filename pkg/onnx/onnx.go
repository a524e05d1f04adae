// Package onnx provides Go bindings for the ONNX Runtime C API and an
// inference engine for the classifier built on them.
//
// # Architecture
//
// The package exposes four types:
//
//   - [Env]: global environment (one per process)
//   - [Session]: loads and holds a model (.onnx bytes)
//   - [Tensor]: N-dimensional tensor for input/output data
//   - [Engine]: a session bound to packed [tensor.Buffer] inputs
//
// Usage flow:
//
//	env, _ := onnx.NewEnv("sentio")
//	defer env.Close()
//
//	engine, _ := onnx.NewEngine(env, modelData, nil)
//	defer engine.Close()
//
//	logits, _ := engine.Run([]tensor.Buffer{ids, mask}, tensor.OutputSlot{Index: 0, Size: 2})
//
// # Linking
//
// ONNX Runtime is dynamically linked (libonnxruntime.so / .dylib). Point
// CGO_CFLAGS and CGO_LDFLAGS at the release archive when it is not
// installed system-wide.
//
// # Thread Safety
//
// Env is safe for concurrent use. Session.Run is thread-safe (ONNX Runtime
// uses internal locking).
package onnx

/*
#cgo LDFLAGS: -lonnxruntime
#include <onnxruntime_c_api.h>
#include <stdlib.h>
#include <string.h>

static const OrtApi* ort_api() {
    return OrtGetApiBase()->GetApi(ORT_API_VERSION);
}

static OrtStatus* ort_create_env(const OrtApi* api, const char* name, OrtEnv** out) {
    return api->CreateEnv(ORT_LOGGING_LEVEL_WARNING, name, out);
}

static OrtStatus* ort_create_session_options(const OrtApi* api, OrtSessionOptions** out) {
    return api->CreateSessionOptions(out);
}

static OrtStatus* ort_create_session_from_memory(const OrtApi* api, OrtEnv* env,
    const void* model_data, size_t model_data_len, OrtSessionOptions* opts, OrtSession** out) {
    return api->CreateSessionFromArray(env, model_data, model_data_len, opts, out);
}

// Wraps caller-owned memory; data must outlive the returned value.
static OrtStatus* ort_create_tensor(const OrtApi* api, OrtMemoryInfo* info,
    void* data, size_t byte_len, int64_t* shape, size_t shape_len,
    ONNXTensorElementDataType type, OrtValue** out) {
    return api->CreateTensorWithDataAsOrtValue(info, data, byte_len,
        shape, shape_len, type, out);
}

static OrtStatus* ort_create_cpu_memory_info(const OrtApi* api, OrtMemoryInfo** out) {
    return api->CreateCpuMemoryInfo(OrtArenaAllocator, OrtMemTypeDefault, out);
}

static OrtStatus* ort_run(const OrtApi* api, OrtSession* session,
    const char** input_names, const OrtValue* const* inputs, size_t num_inputs,
    const char** output_names, size_t num_outputs, OrtValue** outputs) {
    return api->Run(session, NULL, input_names, inputs, num_inputs,
        output_names, num_outputs, outputs);
}

static OrtStatus* ort_get_tensor_data(const OrtApi* api, OrtValue* value, void** out) {
    return api->GetTensorMutableData(value, out);
}

static OrtStatus* ort_get_tensor_shape(const OrtApi* api, OrtValue* value,
    int64_t* shape, size_t shape_len) {
    OrtTensorTypeAndShapeInfo* info;
    OrtStatus* status = api->GetTensorTypeAndShape(value, &info);
    if (status) return status;
    status = api->GetDimensions(info, shape, shape_len);
    api->ReleaseTensorTypeAndShapeInfo(info);
    return status;
}

static OrtStatus* ort_get_tensor_ndim(const OrtApi* api, OrtValue* value, size_t* ndim) {
    OrtTensorTypeAndShapeInfo* info;
    OrtStatus* status = api->GetTensorTypeAndShape(value, &info);
    if (status) return status;
    status = api->GetDimensionsCount(info, ndim);
    api->ReleaseTensorTypeAndShapeInfo(info);
    return status;
}

static OrtStatus* ort_get_tensor_elem_type(const OrtApi* api, OrtValue* value,
    ONNXTensorElementDataType* out) {
    OrtTensorTypeAndShapeInfo* info;
    OrtStatus* status = api->GetTensorTypeAndShape(value, &info);
    if (status) return status;
    status = api->GetTensorElementType(info, out);
    api->ReleaseTensorTypeAndShapeInfo(info);
    return status;
}

static OrtStatus* ort_get_allocator(const OrtApi* api, OrtAllocator** out) {
    return api->GetAllocatorWithDefaultOptions(out);
}

static OrtStatus* ort_io_count(const OrtApi* api, OrtSession* s, int output, size_t* out) {
    if (output) return api->SessionGetOutputCount(s, out);
    return api->SessionGetInputCount(s, out);
}

static OrtStatus* ort_io_name(const OrtApi* api, OrtSession* s, int output, size_t i,
    OrtAllocator* alloc, char** out) {
    if (output) return api->SessionGetOutputName(s, i, alloc, out);
    return api->SessionGetInputName(s, i, alloc, out);
}

// Element type of a session input; ONNX_TENSOR_ELEMENT_DATA_TYPE_UNDEFINED
// for non-tensor inputs.
static OrtStatus* ort_input_elem_type(const OrtApi* api, OrtSession* s, size_t i,
    ONNXTensorElementDataType* out) {
    OrtTypeInfo* type_info;
    OrtStatus* status = api->SessionGetInputTypeInfo(s, i, &type_info);
    if (status) return status;
    const OrtTensorTypeAndShapeInfo* tensor_info;
    status = api->CastTypeInfoToTensorInfo(type_info, &tensor_info);
    if (!status) {
        if (tensor_info) status = api->GetTensorElementType(tensor_info, out);
        else *out = ONNX_TENSOR_ELEMENT_DATA_TYPE_UNDEFINED;
    }
    api->ReleaseTypeInfo(type_info);
    return status;
}

static OrtStatus* ort_allocator_free(const OrtApi* api, OrtAllocator* alloc, void* p) {
    return api->AllocatorFree(alloc, p);
}

static const char* ort_error_message(const OrtApi* api, OrtStatus* status) {
    return api->GetErrorMessage(status);
}

static void ort_release_status(const OrtApi* api, OrtStatus* status) {
    api->ReleaseStatus(status);
}

static void ort_release_env(const OrtApi* api, OrtEnv* env) { api->ReleaseEnv(env); }
static void ort_release_session(const OrtApi* api, OrtSession* s) { api->ReleaseSession(s); }
static void ort_release_session_options(const OrtApi* api, OrtSessionOptions* o) { api->ReleaseSessionOptions(o); }
static void ort_release_memory_info(const OrtApi* api, OrtMemoryInfo* i) { api->ReleaseMemoryInfo(i); }
static void ort_release_value(const OrtApi* api, OrtValue* v) { api->ReleaseValue(v); }
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

// ElementType is an ONNX tensor element type (TensorProto.DataType).
type ElementType int

const (
	ElementUndefined ElementType = 0
	ElementFloat32   ElementType = 1
	ElementInt32     ElementType = 6
	ElementInt64     ElementType = 7
)

// Size returns the element width in bytes, or 0 for unsupported types.
func (t ElementType) Size() int {
	switch t {
	case ElementFloat32, ElementInt32:
		return 4
	case ElementInt64:
		return 8
	}
	return 0
}

func (t ElementType) String() string {
	switch t {
	case ElementFloat32:
		return "float32"
	case ElementInt32:
		return "int32"
	case ElementInt64:
		return "int64"
	case ElementUndefined:
		return "undefined"
	}
	return fmt.Sprintf("onnx.ElementType(%d)", int(t))
}

// api returns the global ORT API pointer.
func api() *C.OrtApi {
	return C.ort_api()
}

// checkStatus converts an OrtStatus to a Go error.
func checkStatus(status *C.OrtStatus) error {
	if status == nil {
		return nil
	}
	msg := C.GoString(C.ort_error_message(api(), status))
	C.ort_release_status(api(), status)
	return fmt.Errorf("onnx: %s", msg)
}

// --------------------------------------------------------------------------
// Env
// --------------------------------------------------------------------------

// Env is the ONNX Runtime environment. Create one per process.
type Env struct {
	env *C.OrtEnv
}

// NewEnv creates a new ONNX Runtime environment.
func NewEnv(name string) (*Env, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var env *C.OrtEnv
	if err := checkStatus(C.ort_create_env(api(), cName, &env)); err != nil {
		return nil, err
	}

	e := &Env{env: env}
	runtime.SetFinalizer(e, (*Env).Close)
	return e, nil
}

// NewSession creates a session from in-memory ONNX model data.
func (e *Env) NewSession(modelData []byte) (*Session, error) {
	if len(modelData) == 0 {
		return nil, fmt.Errorf("onnx: empty model data")
	}

	var opts *C.OrtSessionOptions
	if err := checkStatus(C.ort_create_session_options(api(), &opts)); err != nil {
		return nil, err
	}
	defer C.ort_release_session_options(api(), opts)

	// ORT copies the model during session creation.
	var session *C.OrtSession
	if err := checkStatus(C.ort_create_session_from_memory(
		api(), e.env,
		unsafe.Pointer(&modelData[0]), C.size_t(len(modelData)),
		opts, &session,
	)); err != nil {
		return nil, err
	}

	s := &Session{session: session}
	runtime.SetFinalizer(s, (*Session).Close)
	return s, nil
}

// Close releases the environment.
func (e *Env) Close() error {
	if e.env != nil {
		C.ort_release_env(api(), e.env)
		e.env = nil
		runtime.SetFinalizer(e, nil)
	}
	return nil
}

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// Session holds a loaded ONNX model.
type Session struct {
	session *C.OrtSession
}

// InputNames returns the model's declared input names in order.
func (s *Session) InputNames() ([]string, error) {
	return s.ioNames(false)
}

// OutputNames returns the model's declared output names in order.
func (s *Session) OutputNames() ([]string, error) {
	return s.ioNames(true)
}

func (s *Session) ioNames(output bool) ([]string, error) {
	flag := C.int(0)
	if output {
		flag = 1
	}

	var alloc *C.OrtAllocator
	if err := checkStatus(C.ort_get_allocator(api(), &alloc)); err != nil {
		return nil, err
	}

	var count C.size_t
	if err := checkStatus(C.ort_io_count(api(), s.session, flag, &count)); err != nil {
		return nil, err
	}

	names := make([]string, int(count))
	for i := range names {
		var cName *C.char
		if err := checkStatus(C.ort_io_name(api(), s.session, flag, C.size_t(i), alloc, &cName)); err != nil {
			return nil, err
		}
		names[i] = C.GoString(cName)
		if err := checkStatus(C.ort_allocator_free(api(), alloc, unsafe.Pointer(cName))); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// InputTypes returns the element type of each declared input.
func (s *Session) InputTypes() ([]ElementType, error) {
	var count C.size_t
	if err := checkStatus(C.ort_io_count(api(), s.session, 0, &count)); err != nil {
		return nil, err
	}
	types := make([]ElementType, int(count))
	for i := range types {
		var t C.ONNXTensorElementDataType
		if err := checkStatus(C.ort_input_elem_type(api(), s.session, C.size_t(i), &t)); err != nil {
			return nil, err
		}
		types[i] = ElementType(t)
	}
	return types, nil
}

// Run executes inference with the given inputs and output names.
// Returns output tensors. The caller must close each output tensor.
func (s *Session) Run(inputNames []string, inputs []*Tensor, outputNames []string) ([]*Tensor, error) {
	if len(inputNames) != len(inputs) {
		return nil, fmt.Errorf("onnx: input names/tensors length mismatch: %d vs %d", len(inputNames), len(inputs))
	}
	if len(inputs) == 0 || len(outputNames) == 0 {
		return nil, fmt.Errorf("onnx: run needs at least one input and one output")
	}

	cInputNames := make([]*C.char, len(inputNames))
	for i, name := range inputNames {
		cInputNames[i] = C.CString(name)
		defer C.free(unsafe.Pointer(cInputNames[i]))
	}

	cInputs := make([]*C.OrtValue, len(inputs))
	for i, t := range inputs {
		cInputs[i] = t.value
	}

	cOutputNames := make([]*C.char, len(outputNames))
	for i, name := range outputNames {
		cOutputNames[i] = C.CString(name)
		defer C.free(unsafe.Pointer(cOutputNames[i]))
	}

	cOutputs := make([]*C.OrtValue, len(outputNames))
	status := C.ort_run(api(), s.session,
		&cInputNames[0], &cInputs[0], C.size_t(len(inputs)),
		&cOutputNames[0], C.size_t(len(outputNames)), &cOutputs[0],
	)
	if err := checkStatus(status); err != nil {
		return nil, err
	}

	outputs := make([]*Tensor, len(outputNames))
	for i, val := range cOutputs {
		outputs[i] = &Tensor{value: val, owned: true}
		runtime.SetFinalizer(outputs[i], (*Tensor).Close)
	}
	return outputs, nil
}

// Close releases the session.
func (s *Session) Close() error {
	if s.session != nil {
		C.ort_release_session(api(), s.session)
		s.session = nil
		runtime.SetFinalizer(s, nil)
	}
	return nil
}

// --------------------------------------------------------------------------
// Tensor
// --------------------------------------------------------------------------

// Tensor is an N-dimensional tensor (OrtValue).
type Tensor struct {
	value *C.OrtValue
	data  unsafe.Pointer // C copy of input data, freed on Close
	owned bool           // if true, Close releases the OrtValue
}

// NewTensor creates a float32 tensor with the given shape and data.
// The data is copied.
func NewTensor(shape []int64, data []float32) (*Tensor, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("onnx: empty tensor data")
	}
	if int64(len(data)) < elements(shape) {
		return nil, fmt.Errorf("onnx: tensor data too short: got %d, need %d", len(data), elements(shape))
	}
	return newTensor(shape, unsafe.Pointer(&data[0]), len(data)*4, ElementFloat32)
}

// NewTensorFromBytes creates a tensor from raw host-order element data.
// The data is copied.
func NewTensorFromBytes(shape []int64, data []byte, elem ElementType) (*Tensor, error) {
	size := elem.Size()
	if size == 0 {
		return nil, fmt.Errorf("onnx: unsupported element type %v", elem)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("onnx: empty tensor data")
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("onnx: %d bytes is not a whole number of %v elements", len(data), elem)
	}
	if want := elements(shape) * int64(size); int64(len(data)) != want {
		return nil, fmt.Errorf("onnx: shape %v needs %d bytes, got %d", shape, want, len(data))
	}
	return newTensor(shape, unsafe.Pointer(&data[0]), len(data), elem)
}

func newTensor(shape []int64, data unsafe.Pointer, byteLen int, elem ElementType) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("onnx: tensor shape is empty")
	}

	var memInfo *C.OrtMemoryInfo
	if err := checkStatus(C.ort_create_cpu_memory_info(api(), &memInfo)); err != nil {
		return nil, err
	}
	defer C.ort_release_memory_info(api(), memInfo)

	cData := C.malloc(C.size_t(byteLen))
	C.memcpy(cData, data, C.size_t(byteLen))

	var value *C.OrtValue
	if err := checkStatus(C.ort_create_tensor(
		api(), memInfo,
		cData, C.size_t(byteLen),
		(*C.int64_t)(unsafe.Pointer(&shape[0])), C.size_t(len(shape)),
		C.ONNXTensorElementDataType(elem),
		&value,
	)); err != nil {
		C.free(cData)
		return nil, err
	}

	t := &Tensor{value: value, data: cData, owned: true}
	runtime.SetFinalizer(t, (*Tensor).Close)
	return t, nil
}

func elements(shape []int64) int64 {
	total := int64(1)
	for _, d := range shape {
		total *= d
	}
	return total
}

// ElementType returns the tensor's element type.
func (t *Tensor) ElementType() (ElementType, error) {
	var et C.ONNXTensorElementDataType
	if err := checkStatus(C.ort_get_tensor_elem_type(api(), t.value, &et)); err != nil {
		return ElementUndefined, err
	}
	return ElementType(et), nil
}

// FloatData copies the tensor data into a new float32 slice.
func (t *Tensor) FloatData() ([]float32, error) {
	et, err := t.ElementType()
	if err != nil {
		return nil, err
	}
	if et != ElementFloat32 {
		return nil, fmt.Errorf("onnx: tensor holds %v, not float32", et)
	}

	var ptr unsafe.Pointer
	if err := checkStatus(C.ort_get_tensor_data(api(), t.value, &ptr)); err != nil {
		return nil, err
	}

	shape, err := t.Shape()
	if err != nil {
		return nil, err
	}
	total := int(elements(shape))
	if len(shape) == 0 || total <= 0 {
		return nil, nil
	}

	out := make([]float32, total)
	C.memcpy(unsafe.Pointer(&out[0]), ptr, C.size_t(total*4))
	return out, nil
}

// Shape returns the tensor dimensions.
func (t *Tensor) Shape() ([]int64, error) {
	var ndim C.size_t
	if err := checkStatus(C.ort_get_tensor_ndim(api(), t.value, &ndim)); err != nil {
		return nil, err
	}

	if ndim == 0 {
		return nil, nil
	}

	shape := make([]int64, int(ndim))
	if err := checkStatus(C.ort_get_tensor_shape(api(), t.value, (*C.int64_t)(unsafe.Pointer(&shape[0])), ndim)); err != nil {
		return nil, err
	}
	return shape, nil
}

// Close releases the tensor.
func (t *Tensor) Close() error {
	if t.value != nil && t.owned {
		C.ort_release_value(api(), t.value)
		t.value = nil
		if t.data != nil {
			C.free(t.data)
			t.data = nil
		}
		runtime.SetFinalizer(t, nil)
	}
	return nil
}
