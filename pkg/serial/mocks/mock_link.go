// Package mocks holds test doubles for pkg/serial. MockLink follows the
// layout mockery's expecter template produces for .mockery.yaml, so a
// regenerated file can replace it.
package mocks

import (
	time "time"

	mock "github.com/stretchr/testify/mock"
)

// MockLink is a testify mock for serial.Link.
type MockLink struct {
	mock.Mock
}

type MockLink_Expecter struct {
	mock *mock.Mock
}

func (_m *MockLink) EXPECT() *MockLink_Expecter {
	return &MockLink_Expecter{mock: &_m.Mock}
}

// Close provides a mock function with no fields
func (_m *MockLink) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockLink_Close_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Close'
type MockLink_Close_Call struct {
	*mock.Call
}

// Close is a helper method to define mock.On call
func (_e *MockLink_Expecter) Close() *MockLink_Close_Call {
	return &MockLink_Close_Call{Call: _e.mock.On("Close")}
}

func (_c *MockLink_Close_Call) Run(run func()) *MockLink_Close_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run()
	})
	return _c
}

func (_c *MockLink_Close_Call) Return(_a0 error) *MockLink_Close_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockLink_Close_Call) RunAndReturn(run func() error) *MockLink_Close_Call {
	_c.Call.Return(run)
	return _c
}

// Flush provides a mock function with no fields
func (_m *MockLink) Flush() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Flush")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockLink_Flush_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Flush'
type MockLink_Flush_Call struct {
	*mock.Call
}

// Flush is a helper method to define mock.On call
func (_e *MockLink_Expecter) Flush() *MockLink_Flush_Call {
	return &MockLink_Flush_Call{Call: _e.mock.On("Flush")}
}

func (_c *MockLink_Flush_Call) Run(run func()) *MockLink_Flush_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run()
	})
	return _c
}

func (_c *MockLink_Flush_Call) Return(_a0 error) *MockLink_Flush_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockLink_Flush_Call) RunAndReturn(run func() error) *MockLink_Flush_Call {
	_c.Call.Return(run)
	return _c
}

// ReadLine provides a mock function with given fields: timeout
func (_m *MockLink) ReadLine(timeout time.Duration) (string, error) {
	ret := _m.Called(timeout)

	if len(ret) == 0 {
		panic("no return value specified for ReadLine")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(time.Duration) (string, error)); ok {
		return rf(timeout)
	}
	if rf, ok := ret.Get(0).(func(time.Duration) string); ok {
		r0 = rf(timeout)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(time.Duration) error); ok {
		r1 = rf(timeout)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockLink_ReadLine_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'ReadLine'
type MockLink_ReadLine_Call struct {
	*mock.Call
}

// ReadLine is a helper method to define mock.On call
//   - timeout time.Duration
func (_e *MockLink_Expecter) ReadLine(timeout interface{}) *MockLink_ReadLine_Call {
	return &MockLink_ReadLine_Call{Call: _e.mock.On("ReadLine", timeout)}
}

func (_c *MockLink_ReadLine_Call) Run(run func(timeout time.Duration)) *MockLink_ReadLine_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(time.Duration))
	})
	return _c
}

func (_c *MockLink_ReadLine_Call) Return(_a0 string, _a1 error) *MockLink_ReadLine_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockLink_ReadLine_Call) RunAndReturn(run func(time.Duration) (string, error)) *MockLink_ReadLine_Call {
	_c.Call.Return(run)
	return _c
}

// WriteLine provides a mock function with given fields: text
func (_m *MockLink) WriteLine(text string) error {
	ret := _m.Called(text)

	if len(ret) == 0 {
		panic("no return value specified for WriteLine")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(string) error); ok {
		r0 = rf(text)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockLink_WriteLine_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'WriteLine'
type MockLink_WriteLine_Call struct {
	*mock.Call
}

// WriteLine is a helper method to define mock.On call
//   - text string
func (_e *MockLink_Expecter) WriteLine(text interface{}) *MockLink_WriteLine_Call {
	return &MockLink_WriteLine_Call{Call: _e.mock.On("WriteLine", text)}
}

func (_c *MockLink_WriteLine_Call) Run(run func(text string)) *MockLink_WriteLine_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(string))
	})
	return _c
}

func (_c *MockLink_WriteLine_Call) Return(_a0 error) *MockLink_WriteLine_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockLink_WriteLine_Call) RunAndReturn(run func(string) error) *MockLink_WriteLine_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockLink creates a new instance of MockLink. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockLink(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLink {
	mock := &MockLink{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
