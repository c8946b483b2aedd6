// Package gateway holds the study aggregation query: it walks
// study → series → instance descriptors and flattens them into one list of
// InstanceRecord values, in the order Orthanc lists them.
package gateway

import (
	"context"
	"strconv"
	"strings"

	"github.com/any-hub/orthanc-gateway/internal/orthanc"
)

// DICOM main tags read during aggregation.
const (
	TagSeriesInstanceUID = "SeriesInstanceUID"
	TagSeriesDescription = "SeriesDescription"
	TagSeriesNumber      = "SeriesNumber"
	TagSOPInstanceUID    = "SOPInstanceUID"
	TagInstanceNumber    = "InstanceNumber"

	defaultSeriesDescription = "Series"
)

// DescriptorFetcher 是聚合查询依赖的最小 Orthanc 能力集，*orthanc.Client 实现该接口。
type DescriptorFetcher interface {
	Study(ctx context.Context, id string) (*orthanc.Descriptor, error)
	Series(ctx context.Context, id string) (*orthanc.Descriptor, error)
	Instance(ctx context.Context, id string) (*orthanc.Descriptor, error)
}

// InstanceRecord 是聚合结果中的一条实例描述。
type InstanceRecord struct {
	InstanceID        string `json:"instanceId"`
	SeriesInstanceUID string `json:"seriesInstanceUID"`
	SOPInstanceUID    string `json:"sopInstanceUID"`
	InstanceNumber    int    `json:"instanceNumber"`
	SeriesDescription string `json:"seriesDescription"`
	SeriesNumber      int    `json:"seriesNumber"`
}

// Result 汇总聚合输出以及被跳过的 series/instance 数量。
type Result struct {
	Instances        []InstanceRecord
	SkippedSeries    int
	SkippedInstances int
}

// StudyInstances 顺序拉取 study 下全部实例。只有 study 本身的失败会返回错误；
// 单个 series 或 instance 拉取失败会被跳过并计入 Result。
func StudyInstances(ctx context.Context, fetcher DescriptorFetcher, studyID string) (Result, error) {
	study, err := fetcher.Study(ctx, studyID)
	if err != nil {
		return Result{}, err
	}

	result := Result{Instances: make([]InstanceRecord, 0)}
	for _, seriesID := range study.Series {
		series, err := fetcher.Series(ctx, seriesID)
		if err != nil {
			result.SkippedSeries++
			continue
		}

		seriesTags := series.MainDicomTags
		seriesUID := seriesTags.Get(TagSeriesInstanceUID, seriesID)
		seriesDesc := seriesTags.Get(TagSeriesDescription, defaultSeriesDescription)
		seriesNum := parseTagInt(seriesTags.Get(TagSeriesNumber, ""))

		for _, instanceID := range series.Instances {
			instance, err := fetcher.Instance(ctx, instanceID)
			if err != nil {
				result.SkippedInstances++
				continue
			}
			tags := instance.MainDicomTags
			result.Instances = append(result.Instances, InstanceRecord{
				InstanceID:        instanceID,
				SeriesInstanceUID: seriesUID,
				SOPInstanceUID:    tags.Get(TagSOPInstanceUID, instanceID),
				InstanceNumber:    parseTagInt(tags.Get(TagInstanceNumber, "")),
				SeriesDescription: seriesDesc,
				SeriesNumber:      seriesNum,
			})
		}
	}

	return result, nil
}

// parseTagInt 解析 IS 类型标签；缺失或非整数时返回 0。
func parseTagInt(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}
