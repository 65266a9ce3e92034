//go:build windows

package webgpu

// WGSL compute shaders for the linear-algebra facade and the patch
// transform. Using string constants instead of embed for simplicity.
// Matrices are dense row-major with explicit leading dimensions, matching
// the facade convention; transpose flags select the indexing so no
// transposed copy is ever materialized.

// workgroupSize is the number of threads per workgroup for 1-D dispatches.
const workgroupSize = 256

// gemmShader computes c = alpha*op(a)*op(b) + beta*c. One thread per
// element of c. beta == 0 must not read c, so stale values never leak
// into the result.
const gemmShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> c: array<f32>;

struct Params {
    m: u32,
    n: u32,
    k: u32,
    lda: u32,
    ldb: u32,
    ldc: u32,
    trans_a: u32,
    trans_b: u32,
    alpha: f32,
    beta: f32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.m || col >= params.n) {
        return;
    }

    var sum: f32 = 0.0;
    for (var p: u32 = 0u; p < params.k; p = p + 1u) {
        var a_idx = row * params.lda + p;
        if (params.trans_a != 0u) {
            a_idx = p * params.lda + row;
        }
        var b_idx = p * params.ldb + col;
        if (params.trans_b != 0u) {
            b_idx = col * params.ldb + p;
        }
        sum = sum + a[a_idx] * b[b_idx];
    }

    let c_idx = row * params.ldc + col;
    if (params.beta == 0.0) {
        c[c_idx] = params.alpha * sum;
    } else {
        c[c_idx] = params.alpha * sum + params.beta * c[c_idx];
    }
}
`

// gemvShader computes y = alpha*op(a)*x + beta*y. One thread per element
// of y.
const gemvShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> x: array<f32>;
@group(0) @binding(2) var<storage, read_write> y: array<f32>;

struct Params {
    m: u32,
    n: u32,
    lda: u32,
    inc_x: u32,
    inc_y: u32,
    trans: u32,
    alpha: f32,
    beta: f32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let i = global_id.x;

    var len_out = params.m;
    if (params.trans != 0u) {
        len_out = params.n;
    }
    if (i >= len_out) {
        return;
    }

    var sum: f32 = 0.0;
    if (params.trans == 0u) {
        for (var j: u32 = 0u; j < params.n; j = j + 1u) {
            sum = sum + a[i * params.lda + j] * x[j * params.inc_x];
        }
    } else {
        for (var j: u32 = 0u; j < params.m; j = j + 1u) {
            sum = sum + a[j * params.lda + i] * x[j * params.inc_x];
        }
    }

    let y_idx = i * params.inc_y;
    if (params.beta == 0.0) {
        y[y_idx] = params.alpha * sum;
    } else {
        y[y_idx] = params.alpha * sum + params.beta * y[y_idx];
    }
}
`

// copyShader copies n strided elements of x into y.
const copyShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> y: array<f32>;

struct Params {
    n: u32,
    inc_x: u32,
    inc_y: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let i = global_id.x;
    if (i < params.n) {
        y[i * params.inc_y] = x[i * params.inc_x];
    }
}
`

// extractShader fills the patch matrix from the volume, one thread per
// matrix cell. A cell whose window tap lands in the padding is written as
// literal zero.
const extractShader = `
@group(0) @binding(0) var<storage, read> volume: array<f32>;
@group(0) @binding(1) var<storage, read_write> matrix: array<f32>;

struct Params {
    width: u32,
    height: u32,
    depth: u32,
    window_width: u32,
    window_height: u32,
    stride_x: u32,
    stride_y: u32,
    pad_left: u32,
    pad_top: u32,
    dilate_x: u32,
    dilate_y: u32,
    num_patches_x: u32,
    num_patches_y: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let num_patches = params.num_patches_x * params.num_patches_y;
    let num_rows = params.window_width * params.window_height * params.depth;
    if (idx >= num_rows * num_patches) {
        return;
    }

    let row = idx / num_patches;
    let p = idx % num_patches;
    let u = row % params.window_width;
    let v = (row / params.window_width) % params.window_height;
    let z = row / (params.window_width * params.window_height);
    let px = p % params.num_patches_x;
    let py = p / params.num_patches_x;

    let xd = i32(px * params.stride_x + u * params.dilate_x) - i32(params.pad_left);
    let yd = i32(py * params.stride_y + v * params.dilate_y) - i32(params.pad_top);

    var value: f32 = 0.0;
    if (xd >= 0 && xd < i32(params.width) && yd >= 0 && yd < i32(params.height)) {
        let v_idx = (z * params.height + u32(yd)) * params.width + u32(xd);
        value = volume[v_idx];
    }
    matrix[idx] = value;
}
`

// accumulateShader scatters the patch matrix back onto the volume, adding
// overlapping contributions. Formulated as a gather with one thread per
// voxel, so no atomics are needed: each thread sums the matrix cells whose
// window tap covers its voxel.
const accumulateShader = `
@group(0) @binding(0) var<storage, read> matrix: array<f32>;
@group(0) @binding(1) var<storage, read_write> volume: array<f32>;

struct Params {
    width: u32,
    height: u32,
    depth: u32,
    window_width: u32,
    window_height: u32,
    stride_x: u32,
    stride_y: u32,
    pad_left: u32,
    pad_top: u32,
    dilate_x: u32,
    dilate_y: u32,
    num_patches_x: u32,
    num_patches_y: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.width * params.height * params.depth) {
        return;
    }

    let x = idx % params.width;
    let y = (idx / params.width) % params.height;
    let z = idx / (params.width * params.height);
    let num_patches = params.num_patches_x * params.num_patches_y;

    var sum: f32 = 0.0;
    for (var v: u32 = 0u; v < params.window_height; v = v + 1u) {
        let ny = i32(y + params.pad_top) - i32(v * params.dilate_y);
        if (ny < 0 || ny % i32(params.stride_y) != 0) {
            continue;
        }
        let py = u32(ny) / params.stride_y;
        if (py >= params.num_patches_y) {
            continue;
        }
        for (var u: u32 = 0u; u < params.window_width; u = u + 1u) {
            let nx = i32(x + params.pad_left) - i32(u * params.dilate_x);
            if (nx < 0 || nx % i32(params.stride_x) != 0) {
                continue;
            }
            let px = u32(nx) / params.stride_x;
            if (px >= params.num_patches_x) {
                continue;
            }
            let row = (z * params.window_height + v) * params.window_width + u;
            let p = py * params.num_patches_x + px;
            sum = sum + matrix[row * num_patches + p];
        }
    }
    volume[idx] = sum;
}
`
