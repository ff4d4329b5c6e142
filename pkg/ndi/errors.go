package ndi

import "errors"

var (
	ErrLibraryNotFound      = errors.New("ndi runtime not found")
	ErrLoadFailed           = errors.New("ndi runtime load failed")
	ErrEntryPointMissing    = errors.New("ndi runtime entry point missing")
	ErrInitializationFailed = errors.New("ndi runtime initialization failed")
	ErrVersionUnsupported   = errors.New("ndi runtime version unsupported")
	ErrAlreadyLoaded        = errors.New("ndi runtime already loaded")
	ErrNotLoaded            = errors.New("ndi runtime not loaded")
	ErrCreateFailed         = errors.New("ndi instance create failed")
)
