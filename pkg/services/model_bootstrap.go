package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"car-market-api/pkg/models"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	artifactFormat  = "car-price-random-forest"
	artifactVersion = 1
)

// modelArtifact ディスクに保存するモデルの外枠
type modelArtifact struct {
	Format    string        `msgpack:"format"`
	Version   int           `msgpack:"version"`
	CreatedAt time.Time     `msgpack:"created_at"`
	Forest    *RandomForest `msgpack:"forest"`
}

// ModelBootstrap 起動時に学習済みモデルを用意する。
// 保存済みモデルがあれば読み込み、無ければリファレンスデータから学習して保存する。
type ModelBootstrap struct {
	datasetPath string
	opts        ForestOptions
	encoder     *FeatureEncoder
}

// NewModelBootstrap 新しいモデルブートストラップを作成
func NewModelBootstrap(datasetPath string, opts ForestOptions) *ModelBootstrap {
	return &ModelBootstrap{
		datasetPath: datasetPath,
		opts:        opts,
		encoder:     NewFeatureEncoder(),
	}
}

// EnsureModel returns the model stored at path, training and persisting one
// only when the file does not exist. An unreadable or corrupt artifact is an
// error; it is never silently replaced.
func (mb *ModelBootstrap) EnsureModel(path string) (*RandomForest, error) {
	forest, err := loadModelArtifact(path)
	if err == nil {
		log.Printf("✅ [model] 学習済みモデルを読み込みました: %s (trees=%d)", path, len(forest.Trees))
		return forest, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	log.Printf("🔧 [model] モデルが見つかりません。%s から学習します", mb.datasetPath)
	ds, err := LoadReferenceDataset(mb.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("リファレンスデータの読み込みに失敗: %w", err)
	}

	start := time.Now()
	forest, err = mb.Train(ds)
	if err != nil {
		return nil, fmt.Errorf("モデルの学習に失敗: %w", err)
	}
	log.Printf("✅ [model] 学習完了: rows=%d trees=%d r2=%.4f (%v)", forest.TrainingRows, len(forest.Trees), forest.TrainingR2, time.Since(start))

	data, err := EncodeModelArtifact(forest)
	if err != nil {
		return nil, err
	}
	switch err := writeFileExclusive(path, data); {
	case errors.Is(err, os.ErrExist):
		// 別プロセスが先に保存した。そちらを正とする。
		log.Printf("⚠️ [model] %s は別プロセスが作成済みのため、そのモデルを使用します", path)
		return loadModelArtifact(path)
	case err != nil:
		return nil, fmt.Errorf("モデルの保存に失敗: %w", err)
	}
	return forest, nil
}

// Train fits the forest on the dataset encoded with the serving encoder.
func (mb *ModelBootstrap) Train(ds *ReferenceDataset) (*RandomForest, error) {
	x, y := mb.TrainingMatrix(ds)
	return TrainRandomForest(x, y, FeatureNames(), mb.opts)
}

// TrainingMatrix encodes every dataset row with the same column layout used at
// prediction time. A dataset Age column overrides the derived age.
func (mb *ModelBootstrap) TrainingMatrix(ds *ReferenceDataset) ([][]float64, []float64) {
	x := make([][]float64, 0, len(ds.Rows))
	y := make([]float64, 0, len(ds.Rows))
	for _, r := range ds.Rows {
		v := mb.encoder.Encode(models.CarDescription{
			Brand:        r.Brand,
			Model:        r.Model,
			Year:         r.Year,
			MileageKm:    r.KmDriven,
			Transmission: r.Transmission,
			OwnerRank:    r.Owner,
			FuelType:     r.FuelType,
		})
		if r.HasAge {
			v[0] = r.Age
		}
		x = append(x, v)
		y = append(y, r.Price)
	}
	return x, y
}

// EncodeModelArtifact serializes the forest with msgpack.
func EncodeModelArtifact(forest *RandomForest) ([]byte, error) {
	data, err := msgpack.Marshal(&modelArtifact{
		Format:    artifactFormat,
		Version:   artifactVersion,
		CreatedAt: time.Now().UTC(),
		Forest:    forest,
	})
	if err != nil {
		return nil, fmt.Errorf("モデルのシリアライズに失敗: %w", err)
	}
	return data, nil
}

// DecodeModelArtifact parses and validates a serialized model.
func DecodeModelArtifact(data []byte) (*RandomForest, error) {
	var a modelArtifact
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelArtifactCorrupt, err)
	}
	if a.Format != artifactFormat || a.Version != artifactVersion {
		return nil, fmt.Errorf("%w: unexpected format %q v%d", ErrModelArtifactCorrupt, a.Format, a.Version)
	}
	if a.Forest == nil {
		return nil, fmt.Errorf("%w: no forest", ErrModelArtifactCorrupt)
	}
	if err := a.Forest.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelArtifactCorrupt, err)
	}
	return a.Forest, nil
}

func loadModelArtifact(path string) (*RandomForest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	forest, err := DecodeModelArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !slices.Equal(forest.FeatureNames, FeatureNames()) {
		return nil, fmt.Errorf("%s: %w (model has %d columns, encoder %d)", path, ErrFeatureMismatch, len(forest.FeatureNames), FeatureWidth())
	}
	return forest, nil
}

// writeFileExclusive writes data to path only if path does not exist yet.
// The content is staged in a temp file and hard-linked into place so readers
// never observe a partial artifact.
func writeFileExclusive(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	err = os.Link(tmp.Name(), path)
	if err == nil || errors.Is(err, os.ErrExist) {
		return err
	}

	// ハードリンク非対応のファイルシステム向け
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
