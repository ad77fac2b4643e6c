package models

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/rastercore/pkg/math3d"
)

// GLTFLoader loads glTF and GLB files into a single Mesh.
type GLTFLoader struct {
	// CalculateNormals fills in normals when the file has none, smooth or
	// flat according to SmoothNormals.
	CalculateNormals bool
	SmoothNormals    bool
	// CalculateTangents derives tangents from UVs when the file has none.
	CalculateTangents bool
	// BuildCollider builds the mesh BVH after loading.
	BuildCollider bool
}

func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals:  true,
		SmoothNormals:     true,
		CalculateTangents: true,
		BuildCollider:     true,
	}
}

// Load reads every triangle primitive of every mesh in the document at path.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.LoadDocument(doc, filepath.Base(path), filepath.Dir(path))
}

// LoadDocument converts an already parsed document. dir resolves external
// image URIs.
func (l *GLTFLoader) LoadDocument(doc *gltf.Document, name, dir string) (*Mesh, error) {
	mesh := NewMesh(name)
	mesh.Materials = readMaterials(doc, dir)

	hasTangents := true
	for _, m := range doc.Meshes {
		withTangents, err := l.processMesh(doc, m, mesh)
		if err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
		hasTangents = hasTangents && withTangents
	}
	if len(mesh.Faces) == 0 {
		return nil, ErrNoTriangles
	}

	if l.CalculateNormals && !mesh.HasNormals() {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}
	if l.CalculateTangents && !hasTangents {
		mesh.CalculateTangents()
	}
	mesh.CalculateBounds()

	if l.BuildCollider {
		if err := mesh.BuildCollider(); err != nil {
			return nil, err
		}
	}
	logger.Infof("loaded %s: %d vertices, %d triangles, %d materials",
		name, len(mesh.Vertices), len(mesh.Faces), len(mesh.Materials))
	return mesh, nil
}

// processMesh appends the triangle primitives of m. It reports whether all
// of them carried tangents.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) (bool, error) {
	hasTangents := true
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			logger.Debugf("skipping %v primitive in %q", prim.Mode, m.Name)
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return false, fmt.Errorf("read positions: %w", err)
		}
		var normals [][3]float32
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
				return false, fmt.Errorf("read normals: %w", err)
			}
		}
		var uvs [][2]float32
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
				return false, fmt.Errorf("read uvs: %w", err)
			}
		}
		var tangents [][4]float32
		if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
			if tangents, err = modeler.ReadTangent(doc, doc.Accessors[idx], nil); err != nil {
				return false, fmt.Errorf("read tangents: %w", err)
			}
		} else {
			hasTangents = false
		}

		base := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{Position: vec3(p)}
			if i < len(normals) {
				v.Normal = vec3(normals[i])
			}
			if i < len(uvs) {
				// glTF puts v=0 at the top of the image.
				v.UV = math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1]))
			}
			if i < len(tangents) {
				t := tangents[i]
				v.Tangent = math3d.V3(float64(t[0]), float64(t[1]), float64(t[2]))
				// w gives the handedness; the flipped v axis negates it.
				v.Bitangent = v.Normal.Cross(v.Tangent).Scale(-float64(t[3]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		material := -1
		if prim.Material != nil && *prim.Material < len(mesh.Materials) {
			material = *prim.Material
		}

		var indices []uint32
		if prim.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
				return false, fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		// glTF front faces are counter-clockwise; swap two corners to get
		// the clockwise winding the renderer expects.
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := int(indices[i]), int(indices[i+1]), int(indices[i+2])
			if a >= len(positions) || b >= len(positions) || c >= len(positions) {
				return false, fmt.Errorf("index out of range in triangle %d", i/3)
			}
			mesh.Faces = append(mesh.Faces, Face{
				V:        [3]int{base + a, base + c, base + b},
				Material: material,
			})
		}
	}
	return hasTangents, nil
}

func vec3(f [3]float32) math3d.Vec3 {
	return math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
}

// readMaterials converts the document materials, decoding base color maps
// where the image can be found. Missing or undecodable images are logged
// and skipped.
func readMaterials(doc *gltf.Document, dir string) []Material {
	materials := make([]Material, 0, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := Material{
			Name:      gm.Name,
			BaseColor: [4]float64{1, 1, 1, 1},
			Metallic:  1,
			Roughness: 1,
		}
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				mat.BaseColor = *pbr.BaseColorFactor
			}
			if pbr.MetallicFactor != nil {
				mat.Metallic = *pbr.MetallicFactor
			}
			if pbr.RoughnessFactor != nil {
				mat.Roughness = *pbr.RoughnessFactor
			}
			if pbr.BaseColorTexture != nil {
				img, err := textureImage(doc, pbr.BaseColorTexture.Index, dir)
				if err != nil {
					logger.Debugf("material %d (%s): %v", i, gm.Name, err)
				}
				mat.BaseMap = img
			}
		}
		materials = append(materials, mat)
	}
	return materials
}

func textureImage(doc *gltf.Document, texture int, dir string) (image.Image, error) {
	if texture < 0 || texture >= len(doc.Textures) || doc.Textures[texture].Source == nil {
		return nil, fmt.Errorf("texture %d has no image", texture)
	}
	data, err := imageData(doc, *doc.Textures[texture].Source, dir)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// imageData returns the encoded bytes of image idx, either embedded in a
// buffer view or in a file next to the document.
func imageData(doc *gltf.Document, idx int, dir string) ([]byte, error) {
	if idx < 0 || idx >= len(doc.Images) {
		return nil, fmt.Errorf("image %d out of range", idx)
	}
	img := doc.Images[idx]
	switch {
	case img.BufferView != nil:
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		if buf.Data == nil {
			return nil, ErrExternalBuffer
		}
		return buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], nil
	case img.URI != "" && !strings.HasPrefix(img.URI, "data:"):
		data, err := os.ReadFile(filepath.Join(dir, img.URI))
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("image %d: unsupported source", idx)
	}
}

// LoadGLB loads path with the default loader.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load picks a loader by file extension.
func Load(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf":
		return LoadGLB(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}
