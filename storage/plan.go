package storage

// UploadPlan 一次上传在写入后端前确定的全部参数，各适配器共用同一套策略
type UploadPlan struct {
	Key          string
	FileName     string
	OriginalName string
	ContentType  string
	Public       bool
	Metadata     map[string]string
	Size         int64
}

// PrepareUpload 根据上传选项生成对象键、文件名、内容类型和访问策略
func PrepareUpload(data []byte, originalName string, opts *UploadOptions, gen NameGenerator) (UploadPlan, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}

	fileName := FileName(originalName, opts.FileName, gen)
	key := BuildKey(opts.Directory, fileName)
	if err := ValidateKey(key); err != nil {
		return UploadPlan{}, err
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = ContentTypeByExtension(originalName)
	}

	metadata := make(map[string]string, len(opts.Metadata))
	for k, v := range opts.Metadata {
		metadata[k] = v
	}

	return UploadPlan{
		Key:          key,
		FileName:     fileName,
		OriginalName: originalName,
		ContentType:  contentType,
		Public:       opts.Public(),
		Metadata:     metadata,
		Size:         int64(len(data)),
	}, nil
}

// Result 由上传计划和最终URL组装上传结果
func (p UploadPlan) Result(url string, provider Provider) *UploadResult {
	return &UploadResult{
		URL:          url,
		Key:          p.Key,
		OriginalName: p.OriginalName,
		FileName:     p.FileName,
		Size:         p.Size,
		ContentType:  p.ContentType,
		Provider:     provider,
	}
}
